package tablestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sidecar/domain/dataset"
	"sidecar/internal"
	"sidecar/internal/errors"
)

func priceTable() dataset.PriceTable {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	return dataset.PriceTable{
		Ticker: "ABC",
		Dates:  []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)},
		Close:  []float64{100, 110, 121},
		Change: []float64{1.1, 1.1},
	}
}

func cdfTable(t *testing.T) *dataset.CDFTable {
	t.Helper()
	table := dataset.NewCDFTable("ABC", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC), 3, "grid")
	require.NoError(t, table.AddColumn(dataset.CDFColumn{
		Label:   "change",
		Changes: []float64{0.05, 0.07, 0.09},
		CDF:     []float64{0.1, 0.3, 0.6},
		ECDF:    []float64{0.33, 0.33, 0.66},
		Scale:   0.66,
	}))
	return table
}

func TestPricesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New(internal.NopLogger())
	path := filepath.Join(t.TempDir(), "ABC.gob")

	require.NoError(t, store.SavePrices(ctx, path, priceTable()))
	loaded, err := store.LoadPrices(ctx, path)
	require.NoError(t, err)

	want := priceTable()
	assert.Equal(t, want.Ticker, loaded.Ticker)
	assert.Equal(t, want.Close, loaded.Close)
	assert.Equal(t, want.Change, loaded.Change)
	assert.Empty(t, loaded.LogChange)
	for i := range want.Dates {
		assert.True(t, want.Dates[i].Equal(loaded.Dates[i]))
	}
}

func TestCDFRoundTrip(t *testing.T) {
	for _, ext := range []string{ExtGob, ExtXLSX} {
		t.Run(ext, func(t *testing.T) {
			ctx := context.Background()
			store := New(internal.NopLogger())
			path := filepath.Join(t.TempDir(), "ABC_cdf"+ext)
			table := cdfTable(t)

			require.NoError(t, store.SaveCDF(ctx, path, table))
			loaded, err := store.LoadCDF(ctx, path)
			require.NoError(t, err)

			assert.Equal(t, table.RunID, loaded.RunID)
			assert.Equal(t, table.Labels(), loaded.Labels())
			col, ok := loaded.Column("change")
			require.True(t, ok)
			assert.Equal(t, table.Columns[0].ECDF, col.ECDF)
			assert.Equal(t, table.Columns[0].CDF, col.CDF)
		})
	}
}

func TestLoadWrongKind(t *testing.T) {
	ctx := context.Background()
	store := New(internal.NopLogger())
	path := filepath.Join(t.TempDir(), "ABC.gob")
	require.NoError(t, store.SavePrices(ctx, path, priceTable()))

	_, err := store.LoadCDF(ctx, path)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestLoadCDF_InvalidTable(t *testing.T) {
	ctx := context.Background()
	store := New(internal.NopLogger())
	dir := t.TempDir()

	// gob payload with the same column twice
	dup := cdfTable(t)
	dup.Columns = append(dup.Columns, dup.Columns[0])
	gobPath := filepath.Join(dir, "dup.gob")
	require.NoError(t, saveGob(gobPath, kindCDF, dup))
	_, err := store.LoadCDF(ctx, gobPath)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	// workbook whose meta sheet lists no columns
	xlsxPath := filepath.Join(dir, "empty.xlsx")
	require.NoError(t, store.SaveCDF(ctx, xlsxPath, cdfTable(t)))
	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	rows, err := f.GetRows("meta")
	require.NoError(t, err)
	for i, row := range rows {
		if len(row) > 0 && row[0] == "columns" {
			cell, err := excelize.CoordinatesToCellName(2, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellStr("meta", cell, ""))
		}
	}
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	_, err = store.LoadCDF(ctx, xlsxPath)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, 2, errors.ExitCode(err))
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	store := New(internal.NopLogger())
	dir := t.TempDir()

	_, err := store.LoadPrices(ctx, filepath.Join(dir, "none.gob"))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	corrupt := filepath.Join(dir, "bad.gob")
	require.NoError(t, os.WriteFile(corrupt, []byte("not gob"), 0o644))
	_, err = store.LoadPrices(ctx, corrupt)
	assert.Equal(t, errors.CodeStorageError, errors.GetCode(err))
}

func TestSaveRejects(t *testing.T) {
	ctx := context.Background()
	store := New(internal.NopLogger())
	dir := t.TempDir()

	err := store.SavePrices(ctx, filepath.Join(dir, "ABC.csv"), priceTable())
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	err = store.SaveCDF(ctx, filepath.Join(dir, "ABC.json"), cdfTable(t))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	bad := priceTable()
	bad.Close = bad.Close[:1]
	err = store.SavePrices(ctx, filepath.Join(dir, "ABC.gob"), bad)
	assert.Equal(t, errors.CodeInvalidSeries, errors.CodeOf(err))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(nil).SavePrices(ctx, filepath.Join(t.TempDir(), "ABC.gob"), priceTable())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveOutput(t *testing.T) {
	dir := t.TempDir()

	exact := filepath.Join(dir, "nested", "x.gob")
	got, err := ResolveOutput(exact, "ABC_2023-01-02_2023-01-04", ExtGob)
	require.NoError(t, err)
	assert.Equal(t, exact, got)
	assert.DirExists(t, filepath.Join(dir, "nested"))

	outDir := filepath.Join(dir, "tables")
	got, err = ResolveOutput(outDir, "ABC_2023-01-02_2023-01-04", ExtGob)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "ABC_2023-01-02_2023-01-04.gob"), got)
	assert.DirExists(t, outDir)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "ABC_2023-01-02_2023-01-04", Stem("/tmp/x/ABC_2023-01-02_2023-01-04.gob"))
}
