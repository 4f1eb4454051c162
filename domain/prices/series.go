// Package prices holds the immutable per-ticker price series and the
// period-over-period changes derived from it.
package prices

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"sidecar/domain/core"
	"sidecar/domain/dataset"
	"sidecar/internal/errors"
)

// Column selects which sample of a series feeds the CDF pipeline
type Column string

const (
	ColumnClose  Column = "close"
	ColumnChange Column = "change"
)

// Columns lists the selectable columns in CLI order
var Columns = []Column{ColumnClose, ColumnChange}

// ParseColumn accepts "close" or "change"
func ParseColumn(s string) (Column, error) {
	switch Column(strings.ToLower(strings.TrimSpace(s))) {
	case ColumnClose:
		return ColumnClose, nil
	case ColumnChange:
		return ColumnChange, nil
	default:
		return "", errors.InvalidInput(fmt.Sprintf("invalid column %q (choose from close, change)", s))
	}
}

// Series is one ticker's dated prices. It is immutable after construction;
// changes and log-changes are derived on first access and cached for the
// lifetime of the value.
type Series struct {
	ticker string
	dates  []time.Time
	prices []float64

	changesOnce sync.Once
	changes     []float64

	logOnce    sync.Once
	logChanges []float64
	logErr     error
}

// NewSeries validates and copies the given columns
func NewSeries(ticker string, dates []time.Time, prices []float64) (*Series, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, core.NewInvalidSeriesError("ticker is required")
	}
	if len(dates) != len(prices) {
		return nil, core.NewInvalidSeriesError("%s: %d dates but %d prices", ticker, len(dates), len(prices))
	}
	if len(prices) < 2 {
		return nil, core.NewInvalidSeriesError("%s: need at least 2 prices, got %d", ticker, len(prices))
	}
	for i, p := range prices {
		if !(p > 0) || math.IsInf(p, 0) {
			return nil, core.NewInvalidSeriesError("%s: price[%d] = %v must be positive and finite", ticker, i, p)
		}
	}
	for i := 1; i < len(dates); i++ {
		if dates[i].Before(dates[i-1]) {
			return nil, core.NewInvalidSeriesError("%s: date[%d] %s precedes date[%d] %s",
				ticker, i, core.FormatDate(dates[i]), i-1, core.FormatDate(dates[i-1]))
		}
	}

	s := &Series{
		ticker: ticker,
		dates:  make([]time.Time, len(dates)),
		prices: make([]float64, len(prices)),
	}
	copy(s.dates, dates)
	copy(s.prices, prices)
	return s, nil
}

// FromTable builds a series from a loaded price table
func FromTable(t dataset.PriceTable) (*Series, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return NewSeries(t.Ticker, t.Dates, t.Close)
}

// Ticker returns the upper-cased ticker
func (s *Series) Ticker() string { return s.ticker }

// Len returns the number of prices
func (s *Series) Len() int { return len(s.prices) }

// Dates returns a copy of the dates
func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// Prices returns a copy of the prices
func (s *Series) Prices() []float64 {
	return cloneFloats(s.prices)
}

// StartDate returns the first date; dates are non-decreasing
func (s *Series) StartDate() time.Time { return s.dates[0] }

// EndDate returns the last date
func (s *Series) EndDate() time.Time { return s.dates[len(s.dates)-1] }

// Changes returns prices[i+1]/prices[i], length Len()-1
func (s *Series) Changes() []float64 {
	s.changesOnce.Do(func() {
		s.changes = Ratios(s.prices)
	})
	return cloneFloats(s.changes)
}

// LogChanges returns the natural log of each change
func (s *Series) LogChanges() ([]float64, error) {
	s.logOnce.Do(func() {
		s.logChanges, s.logErr = LogValues(s.Changes())
	})
	if s.logErr != nil {
		return nil, s.logErr
	}
	return cloneFloats(s.logChanges), nil
}

// Column returns the sample for col: raw closes or log-changes
func (s *Series) Column(col Column) ([]float64, error) {
	switch col {
	case ColumnClose:
		return s.Prices(), nil
	case ColumnChange:
		return s.LogChanges()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("invalid column %q", string(col)))
	}
}

// TableOptions selects derived columns for Table
type TableOptions struct {
	IncludeChanges    bool
	IncludeLogChanges bool
}

// DefaultTableOptions stores log-changes only
func DefaultTableOptions() TableOptions {
	return TableOptions{IncludeLogChanges: true}
}

// Table converts the series back to its tabular shape
func (s *Series) Table(opts TableOptions) (dataset.PriceTable, error) {
	t := dataset.PriceTable{
		Ticker: s.ticker,
		Dates:  s.Dates(),
		Close:  s.Prices(),
	}
	if opts.IncludeChanges {
		t.Change = s.Changes()
	}
	if opts.IncludeLogChanges {
		logChanges, err := s.LogChanges()
		if err != nil {
			return dataset.PriceTable{}, err
		}
		t.LogChange = logChanges
	}
	return t, nil
}

// Ratios returns values[i+1]/values[i]
func Ratios(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}
	out := make([]float64, len(values)-1)
	for i := range out {
		out[i] = values[i+1] / values[i]
	}
	return out
}

// LogValues takes the natural log of every value, rejecting values <= 0
func LogValues(values []float64) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, core.NewNumericError("log of non-positive or non-finite value %v at %d", v, i)
		}
		out[i] = math.Log(v)
	}
	return out, nil
}

func cloneFloats(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	return out
}
