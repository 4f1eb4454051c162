package ports

import (
	"context"

	"sidecar/domain/dataset"
)

// Renderer draws every column of a CDF table, empirical against fitted.
// target is either a directory (the file name is derived from the ticker
// and date range) or an exact output path. It returns the path written.
type Renderer interface {
	Render(ctx context.Context, table *dataset.CDFTable, target string) (string, error)
}
