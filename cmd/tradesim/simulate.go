package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/newthinker/tradesim/internal/app"
	"github.com/newthinker/tradesim/internal/config"
	"github.com/newthinker/tradesim/internal/llm/factory"
	"github.com/newthinker/tradesim/internal/metrics"
	"github.com/newthinker/tradesim/internal/report"
	"github.com/newthinker/tradesim/internal/storage/archive"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	simInput        string
	simWindow       int
	simLimit        float64
	simZeroOpen     string
	simOutput       string
	simNoExport     bool
	simInstructions int
	simJSON         bool
	simNarrate      bool
	simMetricsFile  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the trading simulation over a price dataset",
	Long: `Run the greedy allocation strategy over the configured dataset (or --input)
and print the returns, total investment and per-day breakdown.`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVarP(&simInput, "input", "i", "", "price file or directory on local disk (overrides input storage)")
	f.IntVarP(&simWindow, "window", "w", 0, "trading window in dates (overrides config)")
	f.Float64VarP(&simLimit, "limit", "l", 0, "daily investment limit (overrides config)")
	f.StringVar(&simZeroOpen, "zero-open", "", "zero opening price policy: skip or fail (overrides config)")
	f.StringVarP(&simOutput, "output", "o", "", "export directory on local disk (enables export)")
	f.BoolVar(&simNoExport, "no-export", false, "do not export the result")
	f.IntVar(&simInstructions, "instructions", 20, "instructions to print, -1 for all, 0 for none")
	f.BoolVar(&simJSON, "json", false, "print the run as JSON instead of tables")
	f.BoolVar(&simNarrate, "narrate", false, "ask the configured LLM to summarize the result")
	f.StringVar(&simMetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")

	rootCmd.AddCommand(simulateCmd)
}

// applySimulateFlags folds command line overrides into cfg.
func applySimulateFlags(cfg *config.Config) {
	if simInput != "" {
		cfg.Input.Storage = config.StorageConfig{Type: archive.TypeLocalFS, Path: filepath.Dir(simInput)}
		cfg.Input.Prefix = filepath.Base(simInput)
	}
	if simWindow > 0 {
		cfg.Simulation.TradingWindow = simWindow
	}
	if simLimit > 0 {
		cfg.Simulation.DailyInvestmentLimit = simLimit
	}
	if simZeroOpen != "" {
		cfg.Simulation.ZeroOpenPolicy = simZeroOpen
	}
	if simOutput != "" {
		cfg.Output.Enabled = true
		cfg.Output.Storage = config.StorageConfig{Type: archive.TypeLocalFS, Path: simOutput}
	}
	if simNoExport {
		cfg.Output.Enabled = false
	}
	if simMetricsFile != "" {
		cfg.Metrics.Textfile = simMetricsFile
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, fromFile, err := loadConfig()
	if err != nil {
		return err
	}
	applySimulateFlags(cfg)

	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	if !fromFile {
		log.Debug("no config file specified, using defaults")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reg *metrics.Registry
	if cfg.Metrics.Textfile != "" {
		reg = metrics.NewRegistry()
	}

	a, err := app.New(cfg, log, reg)
	if err != nil {
		return err
	}

	run, err := a.Simulate(ctx, app.Request{})
	if reg != nil {
		// written even for failed runs so the failure counter is visible
		if werr := reg.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			log.Warn("failed to write metrics textfile", zap.String("path", cfg.Metrics.Textfile), zap.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if simJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return fmt.Errorf("encoding run: %w", err)
		}
	} else {
		if err := report.Render(out, run.Result, report.Options{Instructions: simInstructions}); err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
		if len(run.Exported) > 0 {
			fmt.Fprintf(out, "\nExported run %s:\n", run.ID)
			for _, p := range run.Exported {
				fmt.Fprintf(out, "  %s\n", p)
			}
		}
	}

	if simNarrate {
		provider, err := factory.New(cfg.LLM)
		if err != nil {
			return fmt.Errorf("creating llm provider: %w", err)
		}
		text, err := report.NewNarrator(provider, log).Narrate(ctx, run.Result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n=== Commentary (%s) ===\n%s\n", provider.Name(), text)
	}

	return nil
}
