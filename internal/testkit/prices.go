// Package testkit provides deterministic price fixtures for tests.
package testkit

import (
	"encoding/csv"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"sidecar/domain/core"
	"sidecar/domain/dataset"
)

// WalkConfig parameterizes a geometric random walk
type WalkConfig struct {
	Ticker     string
	Days       int
	StartPrice float64
	Drift      float64 // mean daily log return
	Volatility float64 // std dev of daily log return
	Seed       int64
	Start      time.Time
}

// DefaultWalk is one trading quarter of a moderately volatile ticker
func DefaultWalk() WalkConfig {
	return WalkConfig{
		Ticker:     "TEST",
		Days:       64,
		StartPrice: 100,
		Drift:      0.0005,
		Volatility: 0.02,
		Seed:       42,
		Start:      time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

// RandomWalk generates closes whose log returns are normal with the
// configured drift and volatility. The same config always yields the same
// table.
func RandomWalk(cfg WalkConfig) dataset.PriceTable {
	rng := rand.New(rand.NewSource(cfg.Seed))
	table := dataset.PriceTable{
		Ticker: cfg.Ticker,
		Dates:  make([]time.Time, cfg.Days),
		Close:  make([]float64, cfg.Days),
	}
	price := cfg.StartPrice
	for i := 0; i < cfg.Days; i++ {
		if i > 0 {
			price *= math.Exp(cfg.Drift + cfg.Volatility*rng.NormFloat64())
		}
		table.Dates[i] = cfg.Start.AddDate(0, 0, i)
		table.Close[i] = price
	}
	return table
}

// WriteYahooCSV writes table in the column layout of a Yahoo Finance
// history export and returns the file path.
func WriteYahooCSV(t testing.TB, dir string, table dataset.PriceTable) string {
	t.Helper()
	path := filepath.Join(dir, table.Ticker+".csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}}
	for i, c := range table.Close {
		price := strconv.FormatFloat(c, 'f', -1, 64)
		rows = append(rows, []string{core.FormatDate(table.Dates[i]), price, price, price, price, price, "1000"})
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Closes builds a table over consecutive days from the given closes
func Closes(ticker string, closes ...float64) dataset.PriceTable {
	cfg := DefaultWalk()
	table := dataset.PriceTable{Ticker: ticker, Close: append([]float64(nil), closes...)}
	for i := range closes {
		table.Dates = append(table.Dates, cfg.Start.AddDate(0, 0, i))
	}
	return table
}
