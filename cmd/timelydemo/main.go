// Package main provides the timelydemo CLI: a small operator-author
// demonstration of the progress-tracking core, wiring the distinct+feedback
// scenario from spec.md §8 end to end (not part of the core contract).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikesurface/timely-dataflow/internal/config"
	"github.com/mikesurface/timely-dataflow/internal/demo"
	"github.com/mikesurface/timely-dataflow/internal/mcp"
	"github.com/mikesurface/timely-dataflow/internal/observability"
	"github.com/mikesurface/timely-dataflow/pkg/persist"
	"github.com/mikesurface/timely-dataflow/pkg/version"
)

var (
	configPath    string
	ticks         int
	checkpointDir string
)

const checkpointBasename = "timelydemo-run"

func main() {
	rootCmd := &cobra.Command{
		Use:           "timelydemo",
		Short:         "Demonstrates the progress-tracking core with a distinct+feedback scenario",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a .timelydemo.yaml config file")
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newMCPCommand())
	rootCmd.AddCommand(newVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Seed scenario S1 and drive it for a fixed number of ticks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenario(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&ticks, "ticks", 8, "number of PullInternalProgress ticks to drive")
	cmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", "", "if set, write the run's tick summaries as JSON to this directory")

	return cmd
}

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the run_scenario tool over MCP on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return mcp.NewServer(mcp.ServerDeps{}).Run(cmd.Context())
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the timelydemo build version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "timelydemo %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
			return nil
		},
	}
}

// runScenario loads configuration, brings up observability, then drives
// scenario S1 for --ticks calls, recording each tick's totals as metrics and printing
// whatever Distinct/Feedback emitted along the way.
func runScenario(ctx context.Context) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.LogLevel = logLevelFromString(cfg.Log.Level)

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(ctx)
		if shutdownErr != nil {
			providers.Logger.Warn("shutdown observability providers", "error", shutdownErr)
		}
	}()

	if cfg.Metrics.Enabled {
		diag, diagErr := observability.NewDiagnosticsServer(cfg.Metrics.Addr, providers.Meter)
		if diagErr != nil {
			return fmt.Errorf("start diagnostics server: %w", diagErr)
		}

		defer func() { _ = diag.Close() }()

		providers.Logger.Info("diagnostics server listening", "addr", diag.Addr())
	}

	metrics, err := observability.NewPointstampMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("build pointstamp metrics: %w", err)
	}

	s := demo.NewScenario()

	rows := make([]tickSummary, 0, ticks)

	for tick := 0; tick < ticks; tick++ {
		start := time.Now()

		r := s.Tick(tick)

		metrics.RecordPull(ctx, "root", r.Consumed, r.Produced, r.Internal, time.Since(start))
		rows = append(rows, tickSummary{Tick: r.Tick, Consumed: r.Consumed, Produced: r.Produced, Internal: r.Internal})

		for _, msg := range r.DistinctOut {
			fmt.Fprintf(os.Stdout, "tick %d: distinct emitted %d at %+v\n", tick, msg.Datum, msg.At)
		}

		for _, msg := range r.FeedbackTaps {
			fmt.Fprintf(os.Stdout, "tick %d: feedback tapped %d at %+v\n", tick, msg.Datum, msg.At)
		}

		if !r.Active {
			providers.Logger.Info("scenario quiesced", "tick", tick)
			break
		}
	}

	renderTickTable(os.Stdout, rows)

	if checkpointDir != "" {
		persister := persist.NewPersister[[]tickSummary](checkpointBasename, persist.NewJSONCodec())

		err := persister.Save(checkpointDir, func() *[]tickSummary { return &rows })
		if err != nil {
			return fmt.Errorf("checkpoint run: %w", err)
		}

		providers.Logger.Info("wrote checkpoint", "dir", checkpointDir, "basename", checkpointBasename)
	}

	return nil
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
