package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gridworth/adapters/api"
	"gridworth/adapters/postgres"
	"gridworth/adapters/tabular"
	"gridworth/domain/series"
	"gridworth/domain/stats"
	"gridworth/internal"
	"gridworth/internal/analysis"
	"gridworth/internal/config"
	"gridworth/ports"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "gridworth",
		Short: "Compare gridded precipitation products against ground stations",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newServeCmd(),
		newDatasetsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full comparison across every gridded dataset",
		Long: `Load the ground matrix and every <dataset>_precipitation file from the
data directory, compute daily/monthly/yearly/seasonal/extreme statistics per
station, and write per-dataset result folders to the results directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := internal.DefaultLogger

			analyzer, cleanup, err := buildAnalyzer(cmd.Context(), cfg, tabular.Format(format), logger, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			run, err := analyzer.Run(ctx)
			if err != nil {
				return err
			}
			logger.Info("run %s complete: %d datasets, %d failed",
				run.ID, len(run.Datasets), run.FailedCount())
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(tabular.FormatCSV),
		"output format for statistics tables (csv or xlsx)")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			os.Setenv("GIN_MODE", cfg.Server.GinMode)
			logger := internal.DefaultLogger

			var runs ports.RunRepository
			cleanup := func() {}
			if cfg.Database.URL != "" {
				db, err := postgres.Connect(cmd.Context(), cfg.Database.URL)
				if err != nil {
					return err
				}
				cleanup = func() { db.Close() }
				runs = postgres.NewRunRepository(db)
			}
			defer cleanup()

			var server *api.Server
			runner := runnerFunc(func(ctx context.Context) (*stats.RunSummary, error) {
				analyzer, done, err := buildAnalyzer(ctx, cfg, tabular.FormatCSV, logger, server.Observer())
				if err != nil {
					return nil, err
				}
				defer done()
				return analyzer.Run(ctx)
			})
			server = api.NewServer(runner, runs, logger)

			logger.Info("serving on port %s", cfg.Server.Port)
			return server.Run(":" + cfg.Server.Port)
		},
	}
}

func newDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the built-in gridded dataset catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tRESOLUTION\tCONVERSION\tCOLLECTION")
			catalog := series.DefaultCatalog()
			for _, name := range sortedKeys(catalog) {
				d := catalog[name]
				fmt.Fprintf(w, "%s\t%s\tx%g\t%s\n",
					d.Name, d.NativeResolution, d.ConversionFactor, d.Collection)
			}
			return w.Flush()
		},
	}
}

type runnerFunc func(ctx context.Context) (*stats.RunSummary, error)

func (f runnerFunc) Run(ctx context.Context) (*stats.RunSummary, error) { return f(ctx) }

// buildAnalyzer wires the reader, writer, optional run repository and
// analysis configuration into an orchestrator.
func buildAnalyzer(ctx context.Context, cfg *config.Config, format tabular.Format,
	logger *internal.Logger, observer ports.Observer) (*analysis.Analyzer, func(), error) {

	analysisCfg, err := stats.NewAnalysisConfig(
		cfg.Analysis.FilterExtremes,
		cfg.Analysis.LowerPercentile,
		cfg.Analysis.UpperPercentile,
		cfg.Analysis.MetricsToFilter,
	)
	if err != nil {
		return nil, nil, err
	}

	source := tabular.NewReader(cfg.Data.DataDir, cfg.Data.StartYear, cfg.Data.EndYear, logger)
	sink := tabular.NewWriter(cfg.Data.ResultsDir, format, logger)

	opts := []analysis.Option{
		analysis.WithWorkers(cfg.Analysis.Workers),
		analysis.WithLogger(logger),
	}
	cleanup := func() {}
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { db.Close() }
		opts = append(opts, analysis.WithRunRepository(postgres.NewRunRepository(db)))
	}
	if observer != nil {
		opts = append(opts, analysis.WithObserver(observer))
	}

	return analysis.New(source, sink, analysisCfg, opts...), cleanup, nil
}

func sortedKeys(m map[string]series.DatasetDescriptor) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
