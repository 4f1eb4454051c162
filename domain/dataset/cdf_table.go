package dataset

import (
	"fmt"
	"strings"
	"time"

	"sidecar/domain/core"
)

// CDFColumn holds one evaluated column: the grid ("changes"), the fitted
// normal CDF and the empirical CDF, all the same length.
type CDFColumn struct {
	Label       string    `json:"label"`
	Changes     []float64 `json:"changes"`
	CDF         []float64 `json:"cdf"`
	ECDF        []float64 `json:"ecdf"`
	Scale       float64   `json:"scale"`
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"std_dev"`
	Fingerprint core.Hash `json:"fingerprint"`

	// normality diagnostics of the sample behind the column
	Skewness       float64 `json:"skewness"`
	ExcessKurtosis float64 `json:"excess_kurtosis"`
	JarqueBeraP    float64 `json:"jarque_bera_p"`
	Outliers       int     `json:"outliers"`
	MaxGap         float64 `json:"max_gap"`
}

// Len returns the number of grid points
func (c CDFColumn) Len() int {
	return len(c.Changes)
}

// Validate checks that all three series share the grid's length
func (c CDFColumn) Validate() error {
	if c.Label == "" {
		return fmt.Errorf("cdf column label is required")
	}
	if len(c.CDF) != len(c.Changes) || len(c.ECDF) != len(c.Changes) {
		return fmt.Errorf("cdf column %s: grid has %d points, cdf %d, ecdf %d",
			c.Label, len(c.Changes), len(c.CDF), len(c.ECDF))
	}
	return nil
}

// CDFTable is the persisted result of evaluating one or more columns of a
// price table. It carries no reference back to the originating series.
type CDFTable struct {
	RunID         core.ID     `json:"run_id"`
	Ticker        string      `json:"ticker"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       time.Time   `json:"end_date"`
	NumSteps      int         `json:"num_steps"`
	Normalization string      `json:"normalization"`
	CreatedAt     time.Time   `json:"created_at"`
	Columns       []CDFColumn `json:"columns"`
}

// NewCDFTable creates an empty table with a fresh run id
func NewCDFTable(ticker string, start, end time.Time, numSteps int, normalization string) *CDFTable {
	return &CDFTable{
		RunID:         core.NewID(),
		Ticker:        strings.ToUpper(ticker),
		StartDate:     start,
		EndDate:       end,
		NumSteps:      numSteps,
		Normalization: normalization,
		CreatedAt:     time.Now().UTC(),
	}
}

// AddColumn appends a validated column; labels must be unique
func (t *CDFTable) AddColumn(col CDFColumn) error {
	if err := col.Validate(); err != nil {
		return err
	}
	if _, exists := t.Column(col.Label); exists {
		return fmt.Errorf("duplicate cdf column %s", col.Label)
	}
	t.Columns = append(t.Columns, col)
	return nil
}

// Column looks up a column by label
func (t *CDFTable) Column(label string) (CDFColumn, bool) {
	for _, col := range t.Columns {
		if col.Label == label {
			return col, true
		}
	}
	return CDFColumn{}, false
}

// Labels returns the column labels in insertion order
func (t *CDFTable) Labels() []string {
	labels := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		labels[i] = col.Label
	}
	return labels
}

// Validate checks every column and that labels are unique
func (t *CDFTable) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("cdf table has no columns")
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if err := col.Validate(); err != nil {
			return err
		}
		if seen[col.Label] {
			return fmt.Errorf("duplicate cdf column %s", col.Label)
		}
		seen[col.Label] = true
	}
	return nil
}

// CDFTableName derives the CDF table stem from the input table's file stem
func CDFTableName(inputStem string) string {
	return inputStem + "_cdf"
}

// ImageName is {TICKER}_{start}-{end}_cdf
func ImageName(ticker string, start, end time.Time) string {
	return fmt.Sprintf("%s_%s-%s_cdf", strings.ToUpper(ticker), core.FormatDate(start), core.FormatDate(end))
}
