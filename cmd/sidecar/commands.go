package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sidecar/app"
	"sidecar/domain/dataset"
	"sidecar/domain/prices"
	"sidecar/internal/config"
	"sidecar/internal/errors"
)

func newIngestCmd(svc *app.CDFService, cfg *config.Config, stdout io.Writer) *cobra.Command {
	var scheme, schemeFile string
	var storeChanges bool

	cmd := &cobra.Command{
		Use:   "ingest CSV_PATH TICKER OUT_PATH",
		Short: "Convert a price history CSV or XLSX into a stored price table",
		Long: `Read a price history, rename its columns with a label scheme and store it
as a price table. OUT_PATH is either a .gob file or a directory, in which case
the table is named {TICKER}_{start}_{end}.gob.`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := svc.IngestCSV(cmd.Context(), app.IngestRequest{
				CSVPath:      args[0],
				Ticker:       args[1],
				OutPath:      args[2],
				Scheme:       scheme,
				SchemeFile:   schemeFile,
				StoreChanges: storeChanges,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scheme, "label-scheme", "l", cfg.Ingest.LabelScheme, "Column label scheme of the input file")
	cmd.Flags().StringVar(&schemeFile, "scheme-file", cfg.Ingest.SchemeFile, "YAML file with additional label schemes")
	cmd.Flags().BoolVarP(&storeChanges, "store-changes", "d", false, "Store the close-to-close change column and drop the first row")
	return cmd
}

func newCDFCmd(svc *app.CDFService, cfg *config.Config, stdout io.Writer) *cobra.Command {
	var columns []string
	var numSteps int
	var normalization string

	cmd := &cobra.Command{
		Use:   "cdf TABLE_PATH OUT_PATH",
		Short: "Compute eCDF and fitted normal CDF columns for a price table",
		Long: `Evaluate the empirical and the scaled normal CDF of the selected columns.
OUT_PATH is a .gob or .xlsx file, or a directory in which case the table is
named after the input with a _cdf suffix.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateColumns(columns); err != nil {
				return err
			}
			table, path, err := svc.ComputeCDF(cmd.Context(), app.CDFRequest{
				TablePath:     args[0],
				OutPath:       args[1],
				Columns:       columns,
				NumSteps:      numSteps,
				Normalization: normalization,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s (%s, run %s)\n", path, table.Ticker, table.RunID)
			return writeSummary(stdout, table)
		},
	}

	addAnalysisFlags(cmd, cfg, &columns, &numSteps)
	cmd.Flags().StringVar(&normalization, "normalization", cfg.Analysis.Normalization, "eCDF divisor: grid or sample")
	return cmd
}

func newPlotCmd(svc *app.CDFService, cfg *config.Config, stdout io.Writer) *cobra.Command {
	var columns []string
	var numSteps int
	var normalization, imagePath string
	var precomputed bool

	cmd := &cobra.Command{
		Use:   "plot TABLE_PATH",
		Short: "Chart eCDF against the fitted normal CDF",
		Long: `Draw one panel per column. TABLE_PATH is a price table, or a CDF table with
--precomputed. The image goes to --image-path: an existing directory gets
{TICKER}_{start}-{end}_cdf.png, any other path is written as given with the
format taken from its extension (png, svg, pdf, eps).`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateColumns(columns); err != nil {
				return err
			}
			req := app.PlotRequest{
				TablePath:     args[0],
				NumSteps:      numSteps,
				Normalization: normalization,
				ImagePath:     imagePath,
				Precomputed:   precomputed,
			}
			// stored tables are drawn in full unless columns are named
			if !precomputed || cmd.Flags().Changed("columns") {
				req.Columns = columns
			}
			path, err := svc.Plot(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, path)
			return nil
		},
	}

	addAnalysisFlags(cmd, cfg, &columns, &numSteps)
	cmd.Flags().StringVar(&normalization, "normalization", cfg.Analysis.Normalization, "eCDF divisor: grid or sample")
	cmd.Flags().StringVarP(&imagePath, "image-path", "i", "", "Image file or directory (default: configured output dir)")
	cmd.Flags().BoolVar(&precomputed, "precomputed", false, "TABLE_PATH is a CDF table written by the cdf command")
	return cmd
}

func addAnalysisFlags(cmd *cobra.Command, cfg *config.Config, columns *[]string, numSteps *int) {
	cmd.Flags().StringSliceVarP(columns, "columns", "c", cfg.Analysis.Columns, "Columns to evaluate: close, change")
	cmd.Flags().IntVarP(numSteps, "num-steps", "n", cfg.Analysis.NumSteps, "Grid resolution")
}

func validateColumns(columns []string) error {
	for _, col := range columns {
		if _, err := prices.ParseColumn(col); err != nil {
			return errors.WithCode(errors.CodeInvalidInput, err)
		}
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return errors.WithCode(errors.CodeInvalidInput, err)
		}
		return nil
	}
}

// writeSummary prints one diagnostics row per column
func writeSummary(w io.Writer, table *dataset.CDFTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tPOINTS\tSCALE\tMEAN\tSTD\tMAX GAP\tSKEW\tEX KURT\tJB P\tOUTLIERS")
	for _, col := range table.Columns {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.5f\t%.5f\t%.4f\t%.3f\t%.3f\t%.3g\t%d\n",
			col.Label, col.Len(), col.Scale, col.Mean, col.StdDev, col.MaxGap,
			col.Skewness, col.ExcessKurtosis, col.JarqueBeraP, col.Outliers)
	}
	return tw.Flush()
}
