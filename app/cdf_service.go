package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"sidecar/adapters/excel"
	"sidecar/adapters/tablestore"
	"sidecar/domain/dataset"
	"sidecar/domain/prices"
	"sidecar/domain/stats"
	"sidecar/internal"
	"sidecar/internal/config"
	"sidecar/internal/errors"
	"sidecar/ports"
)

// CDFService wires ingestion, CDF computation, persistence and rendering
type CDFService struct {
	store    ports.TableStore
	renderer ports.Renderer
	logger   *internal.Logger
	cfg      *config.Config
}

// IngestRequest describes one CSV/XLSX file to turn into a price table
type IngestRequest struct {
	CSVPath      string
	Ticker       string
	OutPath      string // file (.gob) or directory
	Scheme       string // label scheme name, config default when empty
	SchemeFile   string // extra YAML schemes, config default when empty
	StoreChanges bool
}

// CDFRequest describes one CDF computation over a stored price table
type CDFRequest struct {
	TablePath     string
	OutPath       string // file (.gob, .xlsx) or directory
	Columns       []string
	NumSteps      int
	Normalization string
}

// PlotRequest describes one chart. With Precomputed the table at TablePath
// is a CDF table and is drawn as stored.
type PlotRequest struct {
	TablePath     string
	Columns       []string
	NumSteps      int
	Normalization string
	ImagePath     string // file or existing directory, config output dir when empty
	Precomputed   bool
}

// NewCDFService creates the service. A nil config means defaults.
func NewCDFService(store ports.TableStore, renderer ports.Renderer, logger *internal.Logger, cfg *config.Config) *CDFService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &CDFService{
		store:    store,
		renderer: renderer,
		logger:   logger.With("component", "cdf_service"),
		cfg:      cfg,
	}
}

// IngestCSV reads a spreadsheet, applies the label scheme and stores the
// resulting price table. It returns the path written.
func (s *CDFService) IngestCSV(ctx context.Context, req IngestRequest) (string, error) {
	startTime := time.Now()

	schemeFile := firstNonEmpty(req.SchemeFile, s.cfg.Ingest.SchemeFile)
	schemes, err := excel.LoadSchemes(schemeFile)
	if err != nil {
		return "", errors.WithCode(errors.CodeConfigInvalid, err)
	}
	scheme, err := excel.LookupScheme(schemes, firstNonEmpty(req.Scheme, s.cfg.Ingest.LabelScheme))
	if err != nil {
		return "", errors.WithCode(errors.CodeInvalidInput, err)
	}

	data, err := excel.NewDataReader(req.CSVPath, s.logger).ReadData()
	if err != nil {
		return "", errors.WithCode(errors.CodeInvalidInput, err)
	}
	table, err := excel.PrepareTable(data, scheme, req.Ticker, req.StoreChanges)
	if err != nil {
		return "", errors.Wrapf(err, "failed to prepare %s", req.CSVPath)
	}
	// same checks the CDF step will apply, so bad files fail at ingestion
	if _, err := prices.FromTable(table); err != nil {
		return "", errors.Wrapf(err, "failed to prepare %s", req.CSVPath)
	}

	out, err := tablestore.ResolveOutput(firstNonEmpty(req.OutPath, s.cfg.Paths.OutputDir), table.Name(), tablestore.ExtGob)
	if err != nil {
		return "", err
	}
	if err := s.store.SavePrices(ctx, out, table); err != nil {
		return "", err
	}

	s.logger.Info("ingested %s as %s (%d rows) in %.2fms", req.CSVPath, table.Ticker, table.Len(),
		float64(time.Since(startTime).Nanoseconds())/1e6)
	return out, nil
}

// ComputeCDF loads a price table, evaluates the requested columns and
// stores the CDF table. It returns the table and the path written.
func (s *CDFService) ComputeCDF(ctx context.Context, req CDFRequest) (*dataset.CDFTable, string, error) {
	priceTable, err := s.store.LoadPrices(ctx, req.TablePath)
	if err != nil {
		return nil, "", err
	}
	table, err := s.Evaluate(ctx, priceTable, req.Columns, req.NumSteps, req.Normalization)
	if err != nil {
		return nil, "", err
	}

	defaultName := dataset.CDFTableName(tablestore.Stem(req.TablePath))
	out, err := tablestore.ResolveOutput(firstNonEmpty(req.OutPath, s.cfg.Paths.OutputDir), defaultName, tablestore.ExtGob)
	if err != nil {
		return nil, "", err
	}
	if err := s.store.SaveCDF(ctx, out, table); err != nil {
		return nil, "", err
	}
	return table, out, nil
}

// Plot renders either a price table (computing its CDFs first) or a stored
// CDF table. It returns the image path written.
func (s *CDFService) Plot(ctx context.Context, req PlotRequest) (string, error) {
	var (
		table *dataset.CDFTable
		err   error
	)
	if req.Precomputed {
		table, err = s.store.LoadCDF(ctx, req.TablePath)
		if err != nil {
			return "", err
		}
		if len(req.Columns) > 0 {
			if table, err = selectColumns(table, req.Columns); err != nil {
				return "", err
			}
		}
	} else {
		priceTable, err := s.store.LoadPrices(ctx, req.TablePath)
		if err != nil {
			return "", err
		}
		if table, err = s.Evaluate(ctx, priceTable, req.Columns, req.NumSteps, req.Normalization); err != nil {
			return "", err
		}
	}

	return s.renderer.Render(ctx, table, firstNonEmpty(req.ImagePath, s.cfg.Paths.OutputDir))
}

// Evaluate computes one CDF column per requested column. Columns are
// computed concurrently; the first failure cancels the rest and the output
// keeps the requested order.
func (s *CDFService) Evaluate(ctx context.Context, priceTable dataset.PriceTable, columns []string, numSteps int, normalization string) (*dataset.CDFTable, error) {
	if len(columns) == 0 {
		columns = s.cfg.Analysis.Columns
	}
	if numSteps == 0 {
		numSteps = s.cfg.Analysis.NumSteps
	}
	if numSteps < 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("num steps must be positive, got %d", numSteps))
	}
	norm, err := stats.ParseNormalization(firstNonEmpty(normalization, s.cfg.Analysis.Normalization))
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	cols, err := parseColumns(columns)
	if err != nil {
		return nil, err
	}

	series, err := prices.FromTable(priceTable)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid price table for %s", priceTable.Ticker)
	}

	results := make([]dataset.CDFColumn, len(cols))
	g, gctx := errgroup.WithContext(ctx)
	for i, col := range cols {
		i, col := i, col
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sample, err := SampleFor(series, priceTable, col)
			if err != nil {
				return errors.Wrapf(err, "column %s", col)
			}
			result, err := stats.ComputeCDF(sample, numSteps, stats.WithNormalization(norm))
			if err != nil {
				return errors.Wrapf(err, "column %s", col)
			}
			shape, err := stats.DescribeShape(sample)
			if err != nil {
				s.logger.Warn("column %s: shape diagnostics unavailable: %v", col, err)
				shape = stats.UnknownShape()
			}
			results[i] = toColumn(string(col), result, shape)
			s.logger.Debug("column %s: %d grid points, scale %.4f, max gap %.4f, jarque-bera p %.4g, fingerprint %s",
				col, result.Len(), result.Scale, results[i].MaxGap, shape.JarqueBeraP, results[i].Fingerprint.Short())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := dataset.NewCDFTable(series.Ticker(), series.StartDate(), series.EndDate(), numSteps, norm.String())
	for _, col := range results {
		if err := table.AddColumn(col); err != nil {
			return nil, errors.Wrap(err, "failed to assemble cdf table")
		}
	}
	s.logger.Info("computed cdf for %s columns %v (run %s)", table.Ticker, table.Labels(), table.RunID)
	return table, nil
}

// SampleFor selects the sample a column contributes: raw closes for close,
// log-changes for change. A change column stored at ingestion takes
// precedence over the changes derived from the closes.
func SampleFor(series *prices.Series, table dataset.PriceTable, col prices.Column) ([]float64, error) {
	switch col {
	case prices.ColumnClose:
		return series.Prices(), nil
	case prices.ColumnChange:
		if table.HasChange() {
			return prices.LogValues(table.Change)
		}
		return series.LogChanges()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("invalid column %q", col))
	}
}

func toColumn(label string, result *stats.Result, shape stats.Shape) dataset.CDFColumn {
	return dataset.CDFColumn{
		Label:          label,
		Changes:        result.Grid,
		CDF:            result.Theoretical,
		ECDF:           result.Empirical,
		Scale:          result.Scale,
		Mean:           result.Fit.Mean,
		StdDev:         result.Fit.StdDev,
		Fingerprint:    result.Fingerprint(),
		Skewness:       shape.Skewness,
		ExcessKurtosis: shape.ExcessKurtosis,
		JarqueBeraP:    shape.JarqueBeraP,
		Outliers:       shape.Outliers,
		MaxGap:         result.MaxGap(),
	}
}

func parseColumns(columns []string) ([]prices.Column, error) {
	seen := make(map[prices.Column]bool, len(columns))
	out := make([]prices.Column, 0, len(columns))
	for _, raw := range columns {
		col, err := prices.ParseColumn(raw)
		if err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, err)
		}
		if seen[col] {
			return nil, errors.InvalidInput(fmt.Sprintf("column %s requested twice", col))
		}
		seen[col] = true
		out = append(out, col)
	}
	return out, nil
}

func selectColumns(table *dataset.CDFTable, labels []string) (*dataset.CDFTable, error) {
	selected := *table
	selected.Columns = nil
	for _, label := range labels {
		col, ok := table.Column(label)
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("column %s not in cdf table (has %v)", label, table.Labels()))
		}
		if err := selected.AddColumn(col); err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, err)
		}
	}
	return &selected, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
