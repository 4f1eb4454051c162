package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sidecar/domain/core"
	"sidecar/domain/dataset"
)

const metaSheet = "meta"

// cdfHeader is the column layout of each per-column sheet
var cdfHeader = []interface{}{"changes", "cdf", "ecdf"}

// WriteCDFWorkbook saves a CDF table as an xlsx workbook: a meta sheet of
// key/value rows and one sheet per evaluated column.
func WriteCDFWorkbook(path string, table *dataset.CDFTable) error {
	if err := table.Validate(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), metaSheet); err != nil {
		return fmt.Errorf("failed to create meta sheet: %w", err)
	}

	meta := [][]interface{}{
		{"run_id", table.RunID.String()},
		{"ticker", table.Ticker},
		{"start_date", core.FormatDate(table.StartDate)},
		{"end_date", core.FormatDate(table.EndDate)},
		{"num_steps", strconv.Itoa(table.NumSteps)},
		{"normalization", table.Normalization},
		{"created_at", table.CreatedAt.Format(time.RFC3339)},
		{"columns", strings.Join(table.Labels(), ",")},
	}
	for _, col := range table.Columns {
		meta = append(meta,
			[]interface{}{col.Label + ".scale", formatFloat(col.Scale)},
			[]interface{}{col.Label + ".mean", formatFloat(col.Mean)},
			[]interface{}{col.Label + ".std_dev", formatFloat(col.StdDev)},
			[]interface{}{col.Label + ".fingerprint", col.Fingerprint.String()},
			[]interface{}{col.Label + ".skewness", formatFloat(col.Skewness)},
			[]interface{}{col.Label + ".excess_kurtosis", formatFloat(col.ExcessKurtosis)},
			[]interface{}{col.Label + ".jarque_bera_p", formatFloat(col.JarqueBeraP)},
			[]interface{}{col.Label + ".outliers", strconv.Itoa(col.Outliers)},
			[]interface{}{col.Label + ".max_gap", formatFloat(col.MaxGap)},
		)
	}
	for i, row := range meta {
		if err := setRow(f, metaSheet, i+1, row); err != nil {
			return err
		}
	}

	for _, col := range table.Columns {
		if _, err := f.NewSheet(col.Label); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", col.Label, err)
		}
		if err := setRow(f, col.Label, 1, cdfHeader); err != nil {
			return err
		}
		for i := range col.Changes {
			// strings keep full float64 precision through the workbook
			row := []interface{}{formatFloat(col.Changes[i]), formatFloat(col.CDF[i]), formatFloat(col.ECDF[i])}
			if err := setRow(f, col.Label, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// ReadCDFWorkbook loads a workbook written by WriteCDFWorkbook. It decodes
// only; callers validate the table.
func ReadCDFWorkbook(path string) (*dataset.CDFTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	metaRows, err := f.GetRows(metaSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("workbook %s has no meta sheet: %w", path, err)
	}
	meta := make(map[string]string, len(metaRows))
	for _, row := range metaRows {
		if len(row) >= 2 {
			meta[row[0]] = row[1]
		}
	}

	table := &dataset.CDFTable{
		RunID:         core.ID(meta["run_id"]),
		Ticker:        meta["ticker"],
		Normalization: meta["normalization"],
	}
	if table.StartDate, err = core.ParseDate(meta["start_date"]); err != nil {
		return nil, fmt.Errorf("meta start_date: %w", err)
	}
	if table.EndDate, err = core.ParseDate(meta["end_date"]); err != nil {
		return nil, fmt.Errorf("meta end_date: %w", err)
	}
	if table.NumSteps, err = strconv.Atoi(meta["num_steps"]); err != nil {
		return nil, fmt.Errorf("meta num_steps: %w", err)
	}
	if created := meta["created_at"]; created != "" {
		if table.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("meta created_at: %w", err)
		}
	}

	for _, label := range strings.Split(meta["columns"], ",") {
		if label == "" {
			continue
		}
		col, err := readCDFSheet(f, label, meta)
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, col)
	}
	return table, nil
}

func readCDFSheet(f *excelize.File, label string, meta map[string]string) (dataset.CDFColumn, error) {
	rows, err := f.GetRows(label, excelize.Options{RawCellValue: true})
	if err != nil {
		return dataset.CDFColumn{}, fmt.Errorf("failed to read sheet %s: %w", label, err)
	}
	col := dataset.CDFColumn{Label: label, Fingerprint: core.Hash(meta[label+".fingerprint"])}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 3 {
			return dataset.CDFColumn{}, fmt.Errorf("sheet %s row %d: expected 3 cells, got %d", label, i+1, len(row))
		}
		values := make([]float64, 3)
		for j := range values {
			if values[j], err = strconv.ParseFloat(row[j], 64); err != nil {
				return dataset.CDFColumn{}, fmt.Errorf("sheet %s row %d: %w", label, i+1, err)
			}
		}
		col.Changes = append(col.Changes, values[0])
		col.CDF = append(col.CDF, values[1])
		col.ECDF = append(col.ECDF, values[2])
	}
	floatsByKey := map[string]*float64{
		"scale":           &col.Scale,
		"mean":            &col.Mean,
		"std_dev":         &col.StdDev,
		"skewness":        &col.Skewness,
		"excess_kurtosis": &col.ExcessKurtosis,
		"jarque_bera_p":   &col.JarqueBeraP,
		"max_gap":         &col.MaxGap,
	}
	for key, dst := range floatsByKey {
		if raw, ok := meta[label+"."+key]; ok {
			if *dst, err = strconv.ParseFloat(raw, 64); err != nil {
				return dataset.CDFColumn{}, fmt.Errorf("meta %s.%s: %w", label, key, err)
			}
		}
	}
	if raw, ok := meta[label+".outliers"]; ok {
		if col.Outliers, err = strconv.Atoi(raw); err != nil {
			return dataset.CDFColumn{}, fmt.Errorf("meta %s.outliers: %w", label, err)
		}
	}
	return col, nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
