package excel

import (
	"strconv"
	"strings"
	"time"

	"sidecar/domain/core"
	"sidecar/domain/dataset"
	"sidecar/domain/prices"
)

// PrepareTable renames and types the raw rows into a price table.
// Columns the scheme does not map are dropped and the ticker is
// upper-cased. With storeChanges the consecutive close ratio is added as the
// change column and the first row, which has no predecessor, is dropped.
func PrepareTable(data *ExcelData, scheme LabelScheme, ticker string, storeChanges bool) (dataset.PriceTable, error) {
	if err := scheme.Validate(); err != nil {
		return dataset.PriceTable{}, err
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return dataset.PriceTable{}, core.NewInvalidSeriesError("ticker is required")
	}

	dateCol, _ := scheme.sourceFor(dataset.LabelDate)
	closeCol, _ := scheme.sourceFor(dataset.LabelClose)
	changeCol, hasChange := scheme.sourceFor(dataset.LabelChange)
	for _, col := range []string{dateCol, closeCol} {
		if !data.HasHeader(col) {
			return dataset.PriceTable{}, core.NewInvalidSeriesError("column %q not found in %v", col, data.Headers)
		}
	}
	hasChange = hasChange && data.HasHeader(changeCol)

	table := dataset.PriceTable{
		Ticker: ticker,
		Dates:  make([]time.Time, 0, len(data.Rows)),
		Close:  make([]float64, 0, len(data.Rows)),
	}
	for i, row := range data.Rows {
		line := i + 2 // header is line 1
		date, err := core.ParseDate(row[dateCol])
		if err != nil {
			return dataset.PriceTable{}, core.NewInvalidSeriesError("line %d: %v", line, err)
		}
		closePrice, err := parseFloat(row[closeCol])
		if err != nil {
			return dataset.PriceTable{}, core.NewInvalidSeriesError("line %d: close %q: %v", line, row[closeCol], err)
		}
		table.Dates = append(table.Dates, date)
		table.Close = append(table.Close, closePrice)

		if hasChange && !storeChanges {
			change, err := parseFloat(row[changeCol])
			if err != nil {
				return dataset.PriceTable{}, core.NewInvalidSeriesError("line %d: change %q: %v", line, row[changeCol], err)
			}
			table.Change = append(table.Change, change)
		}
	}

	if storeChanges {
		if table.Len() < 2 {
			return dataset.PriceTable{}, core.NewInvalidSeriesError("need at least 2 rows to store changes, got %d", table.Len())
		}
		table.Change = prices.Ratios(table.Close)
		table.Dates = table.Dates[1:]
		table.Close = table.Close[1:]
	}

	return table, table.Validate()
}

func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}
