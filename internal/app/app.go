package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/tradesim/internal/config"
	"github.com/newthinker/tradesim/internal/core"
	"github.com/newthinker/tradesim/internal/export"
	"github.com/newthinker/tradesim/internal/ingest"
	"github.com/newthinker/tradesim/internal/metrics"
	"github.com/newthinker/tradesim/internal/notifier"
	"github.com/newthinker/tradesim/internal/notifier/webhook"
	"github.com/newthinker/tradesim/internal/simulation"
	"github.com/newthinker/tradesim/internal/storage/archive"
	"go.uber.org/zap"
)

// Request describes one simulation run. Zero-valued overrides fall back
// to the configured simulation parameters.
type Request struct {
	// Lines are simulated instead of the configured dataset when non-empty.
	Lines []ingest.Line

	TradingWindow        int
	DailyInvestmentLimit float64
	ZeroOpenPolicy       string

	// SkipExport disables export even when output is enabled.
	SkipExport bool
}

// Run is a finished simulation.
type Run struct {
	ID       string             `json:"id"`
	Parsed   int                `json:"parsed_lines"`
	Dropped  int                `json:"dropped_lines"`
	Result   *simulation.Result `json:"result"`
	Exported []string           `json:"exported,omitempty"`
}

// App wires dataset storage, ingestion, the simulator and export together.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Registry
	loader   *ingest.Loader
	grouper  *ingest.Grouper
	exporter *export.Exporter
	notifier *notifier.Registry
}

const notifyTimeout = 10 * time.Second

// New opens the configured storages and creates an App. reg may be nil.
func New(cfg *config.Config, logger *zap.Logger, reg *metrics.Registry) (*App, error) {
	input, err := archive.Open(cfg.Input.Storage.Options())
	if err != nil {
		return nil, core.WrapError(core.ErrInputFailed, fmt.Errorf("opening input storage: %w", err))
	}

	var output archive.Storage
	if cfg.Output.Enabled {
		output, err = archive.Open(cfg.Output.Storage.Options())
		if err != nil {
			return nil, core.WrapError(core.ErrExportFailed, fmt.Errorf("opening output storage: %w", err))
		}
	}

	a := NewWithStorage(cfg, logger, reg, input, output)
	for _, w := range cfg.Notify.Webhooks {
		hook, err := webhook.New(w.Name, w.URL, w.Headers)
		if err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, err)
		}
		if err := a.AddNotifier(hook); err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, err)
		}
	}
	return a, nil
}

// NewWithStorage creates an App over already-open storages. A nil output
// disables export.
func NewWithStorage(cfg *config.Config, logger *zap.Logger, reg *metrics.Registry, input, output archive.Storage) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		metrics:  reg,
		loader:   ingest.NewLoader(input, logger),
		grouper:  ingest.NewGrouper(cfg.Input.Format.Format(), logger),
		notifier: notifier.NewRegistry(),
	}
	if output != nil {
		a.exporter = export.New(output, logger)
	}
	return a
}

// AddNotifier registers a notifier told about every finished run.
func (a *App) AddNotifier(n notifier.Notifier) error {
	return a.notifier.Register(n)
}

// Params merges the overrides of req onto the configured parameters.
func (a *App) Params(req Request) simulation.Config {
	params := a.cfg.Simulation.Params()
	if req.TradingWindow > 0 {
		params.TradingWindow = req.TradingWindow
	}
	if req.DailyInvestmentLimit > 0 {
		params.DailyInvestmentLimit = req.DailyInvestmentLimit
	}
	if req.ZeroOpenPolicy != "" {
		params.ZeroOpen = simulation.ZeroOpenPolicy(req.ZeroOpenPolicy)
	}
	return params
}

// Simulate loads or takes the input lines, runs the strategy over them and
// exports the result when output is enabled.
func (a *App) Simulate(ctx context.Context, req Request) (*Run, error) {
	start := time.Now()
	run, err := a.simulate(ctx, req)

	status := "success"
	if err != nil {
		status = "failed"
	}
	if a.metrics != nil {
		a.metrics.RecordSimulation(status, time.Since(start).Seconds())
	}
	a.notify(ctx, run, err)
	return run, err
}

// notify reports the outcome to every notifier. Delivery failures are
// logged and never fail the run.
func (a *App) notify(ctx context.Context, run *Run, runErr error) {
	if a.notifier.Len() == 0 {
		return
	}

	e := notifier.Event{Status: notifier.StatusSuccess, FinishedAt: time.Now().UTC()}
	if run != nil {
		e.RunID = run.ID
		e.Exported = run.Exported
		if run.Result != nil {
			e.Returns = run.Result.Returns
			e.TotalInvestmentValue = run.Result.TotalInvestmentValue
			e.NetProfit = run.Result.NetProfit()
			e.Instructions = len(run.Result.Instructions)
		}
	}
	if runErr != nil {
		e.Status = notifier.StatusFailed
		e.Error = runErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	for name, err := range a.notifier.NotifyAll(ctx, e) {
		a.logger.Warn("failed to deliver run notification",
			zap.String("notifier", name),
			zap.String("run_id", e.RunID),
			zap.Error(err),
		)
	}
}

func (a *App) simulate(ctx context.Context, req Request) (*Run, error) {
	sim, err := simulation.New(a.Params(req), a.logger)
	if err != nil {
		return nil, err
	}

	lines := req.Lines
	if len(lines) == 0 {
		lines, err = a.loader.Load(ctx, a.cfg.Input.Prefix)
		if err != nil {
			return nil, err
		}
	}

	grouping := a.grouper.Group(lines)
	if a.metrics != nil {
		a.metrics.RecordLines(grouping.Parsed, grouping.Dropped)
	}
	if len(grouping.Groups) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("none of %d input lines could be parsed", len(lines)))
	}

	result, err := sim.Run(ctx, grouping.Groups)
	if err != nil {
		// coded errors such as ZERO_OPENING_PRICE keep their code
		var coded *core.Error
		if !errors.As(err, &coded) {
			err = core.WrapError(core.ErrSimulationFailed, err)
		}
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.RecordResult(len(result.Instructions), result.Returns, result.TotalInvestmentValue)
	}

	run := &Run{
		ID:      uuid.NewString(),
		Parsed:  grouping.Parsed,
		Dropped: grouping.Dropped,
		Result:  result,
	}

	if a.exporter != nil && !req.SkipExport {
		run.Exported, err = a.exporter.Export(ctx, run.ID, result)
		if err != nil {
			return run, err
		}
	}

	a.logger.Info("run finished",
		zap.String("run_id", run.ID),
		zap.Int("parsed_lines", run.Parsed),
		zap.Int("dropped_lines", run.Dropped),
		zap.Int("exported", len(run.Exported)),
	)
	return run, nil
}
