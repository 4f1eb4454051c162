package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sidecar/app"
	"sidecar/internal/config"
	"sidecar/internal/container"
	"sidecar/internal/errors"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errors.ExitCode(err)
	}

	c, err := container.New(cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	rootCmd := newRootCmd(c.CDFService, cfg, stdout)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return errors.ExitCode(err)
	}
	return 0
}

func newRootCmd(svc *app.CDFService, cfg *config.Config, stdout io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sidecar",
		Short: "Compare the empirical CDF of stock price movements with a fitted normal CDF",
		Long: `sidecar ingests daily price histories, evaluates the empirical CDF of
price changes against a scaled normal CDF, stores the results and charts them.

Example:
  sidecar ingest AAPL.csv aapl tables/ -d
  sidecar cdf tables/AAPL_2023-01-03_2023-12-29.gob tables/ -c close,change
  sidecar plot tables/AAPL_2023-01-03_2023-12-29_cdf.gob --precomputed -i charts/`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.WithCode(errors.CodeInvalidInput, err)
	})

	rootCmd.AddCommand(
		newIngestCmd(svc, cfg, stdout),
		newCDFCmd(svc, cfg, stdout),
		newPlotCmd(svc, cfg, stdout),
	)
	return rootCmd
}
