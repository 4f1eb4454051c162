package chart

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidecar/domain/dataset"
	"sidecar/internal"
	"sidecar/internal/config"
	"sidecar/internal/errors"
)

func table(t *testing.T, labels ...string) *dataset.CDFTable {
	t.Helper()
	tbl := dataset.NewCDFTable("abc", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC), 4, "grid")
	for _, label := range labels {
		require.NoError(t, tbl.AddColumn(dataset.CDFColumn{
			Label:   label,
			Changes: []float64{-0.1, 0, 0.1, 0.2},
			CDF:     []float64{0.05, 0.3, 0.6, 0.74},
			ECDF:    []float64{0.25, 0.25, 0.5, 0.75},
			Scale:   0.75,
		}))
	}
	return tbl
}

func newRenderer() *Renderer {
	return NewRenderer(config.PlotConfig{WidthInches: 4, HeightInches: 3}, internal.NopLogger())
}

func TestRender_Directory(t *testing.T) {
	dir := t.TempDir()

	path, err := newRenderer().Render(context.Background(), table(t, "change", "close"), dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "ABC_2023-01-02-2023-03-31_cdf.png"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	header := make([]byte, 8)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG\r\n\x1a\n", string(header))
}

func TestRender_ExplicitFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out", "abc.svg")

	path, err := newRenderer().Render(context.Background(), table(t, "change"), target)
	require.NoError(t, err)
	assert.Equal(t, target, path)
	assert.FileExists(t, target)
}

func TestRender_Errors(t *testing.T) {
	r := newRenderer()

	_, err := r.Render(context.Background(), table(t), t.TempDir())
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = r.Render(context.Background(), table(t, "change"), filepath.Join(t.TempDir(), "abc.bmp"))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, table(t, "change"), t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTitle(t *testing.T) {
	got := Title("ABC", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "eCDF vs CDF of Stock Price Movements for ABC, 2023-01-02 - 2023-03-31", got)
}
