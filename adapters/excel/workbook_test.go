package excel

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidecar/domain/core"
	"sidecar/domain/dataset"
)

func sampleCDFTable(t *testing.T) *dataset.CDFTable {
	t.Helper()
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	table := dataset.NewCDFTable("abc", start, start.AddDate(0, 0, 3), 4, "grid")
	require.NoError(t, table.AddColumn(dataset.CDFColumn{
		Label:       "change",
		Changes:     []float64{-0.1, -0.05, 0.1 / 3, 0.2},
		CDF:         []float64{0.01, 0.08, 0.2, 0.25},
		ECDF:        []float64{0.25, 0.25, 0.5, 0.75},
		Scale:       0.75,
		Mean:        0.0317,
		StdDev:      0.0953,
		Fingerprint: core.NewHash([]byte("change")),

		Skewness:       -0.71,
		ExcessKurtosis: -1.5,
		JarqueBeraP:    0.78,
		Outliers:       1,
		MaxGap:         0.24,
	}))
	require.NoError(t, table.AddColumn(dataset.CDFColumn{
		Label:   "close",
		Changes: []float64{100, 105},
		CDF:     []float64{0.3, 0.5},
		ECDF:    []float64{0.5, 0.5},
		Scale:   0.5,
	}))
	return table
}

func TestCDFWorkbookRoundTrip(t *testing.T) {
	table := sampleCDFTable(t)
	path := filepath.Join(t.TempDir(), "ABC_cdf.xlsx")

	require.NoError(t, WriteCDFWorkbook(path, table))
	loaded, err := ReadCDFWorkbook(path)
	require.NoError(t, err)

	assert.Equal(t, table.RunID, loaded.RunID)
	assert.Equal(t, "ABC", loaded.Ticker)
	assert.True(t, table.StartDate.Equal(loaded.StartDate))
	assert.True(t, table.EndDate.Equal(loaded.EndDate))
	assert.Equal(t, table.NumSteps, loaded.NumSteps)
	assert.Equal(t, table.Normalization, loaded.Normalization)
	assert.Equal(t, []string{"change", "close"}, loaded.Labels())

	for _, want := range table.Columns {
		got, ok := loaded.Column(want.Label)
		require.True(t, ok, want.Label)
		// values are stored as shortest round-trip strings so equality is exact
		assert.Equal(t, want.Changes, got.Changes)
		assert.Equal(t, want.CDF, got.CDF)
		assert.Equal(t, want.ECDF, got.ECDF)
		assert.Equal(t, want.Scale, got.Scale)
		assert.Equal(t, want.Mean, got.Mean)
		assert.Equal(t, want.StdDev, got.StdDev)
		assert.Equal(t, want.Fingerprint, got.Fingerprint)
		assert.Equal(t, want.Skewness, got.Skewness)
		assert.Equal(t, want.ExcessKurtosis, got.ExcessKurtosis)
		assert.Equal(t, want.JarqueBeraP, got.JarqueBeraP)
		assert.Equal(t, want.Outliers, got.Outliers)
		assert.Equal(t, want.MaxGap, got.MaxGap)
	}
}

func TestWriteCDFWorkbook_RejectsEmptyTable(t *testing.T) {
	table := dataset.NewCDFTable("abc", time.Now(), time.Now(), 10, "grid")
	err := WriteCDFWorkbook(filepath.Join(t.TempDir(), "x.xlsx"), table)
	assert.Error(t, err)
}

func TestReadCDFWorkbook_Missing(t *testing.T) {
	_, err := ReadCDFWorkbook(filepath.Join(t.TempDir(), "none.xlsx"))
	assert.Error(t, err)
}
