package dataset

import (
	"fmt"
	"strings"
	"time"

	"sidecar/domain/core"
)

// Column labels shared by ingestion, persistence and the CLI
const (
	LabelTicker    = "ticker"
	LabelDate      = "date"
	LabelClose     = "close"
	LabelChange    = "change"
	LabelLogChange = "log_change"
)

// PriceTable is the tabular shape of one ticker's dated prices.
// Change and LogChange are optional. When present they are either
// row-aligned with Close (ingestion drops the first row) or one element
// shorter (ratios derived from the closes).
type PriceTable struct {
	Ticker    string      `json:"ticker"`
	Dates     []time.Time `json:"dates"`
	Close     []float64   `json:"close"`
	Change    []float64   `json:"change,omitempty"`
	LogChange []float64   `json:"log_change,omitempty"`
}

// Len returns the number of rows
func (t PriceTable) Len() int {
	return len(t.Close)
}

// HasChange reports whether a precomputed change column is present
func (t PriceTable) HasChange() bool {
	return len(t.Change) > 0
}

// Validate checks that the table's columns are consistent
func (t PriceTable) Validate() error {
	if strings.TrimSpace(t.Ticker) == "" {
		return core.NewInvalidSeriesError("ticker is required")
	}
	if len(t.Dates) != len(t.Close) {
		return core.NewInvalidSeriesError("%d dates but %d closes", len(t.Dates), len(t.Close))
	}
	for _, col := range []struct {
		label  string
		values []float64
	}{
		{LabelChange, t.Change},
		{LabelLogChange, t.LogChange},
	} {
		if len(col.values) == 0 {
			continue
		}
		// derived columns are either row-aligned or one shorter than closes
		if len(col.values) != t.Len() && len(col.values) != t.Len()-1 {
			return core.NewInvalidSeriesError("%s column has %d rows, table has %d", col.label, len(col.values), t.Len())
		}
	}
	return nil
}

// DateRange returns the first and last date in the table
func (t PriceTable) DateRange() (time.Time, time.Time) {
	return core.DateRange(t.Dates)
}

// Name returns the default file stem {TICKER}_{start}_{end}
func (t PriceTable) Name() string {
	start, end := t.DateRange()
	return fmt.Sprintf("%s_%s_%s", strings.ToUpper(t.Ticker), core.FormatDate(start), core.FormatDate(end))
}
