package ports

import (
	"context"

	"sidecar/domain/dataset"
)

// TableStore persists the two tabular shapes the pipeline exchanges:
// price tables produced by ingestion and CDF tables produced by analysis.
// Implementations choose the on-disk format; callers only see the structs.
type TableStore interface {
	SavePrices(ctx context.Context, path string, table dataset.PriceTable) error
	LoadPrices(ctx context.Context, path string) (dataset.PriceTable, error)

	SaveCDF(ctx context.Context, path string, table *dataset.CDFTable) error
	LoadCDF(ctx context.Context, path string) (*dataset.CDFTable, error)
}
