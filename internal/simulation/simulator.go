package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/tradesim/internal/core"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// Config holds the simulation parameters
type Config struct {
	TradingWindow        int
	DailyInvestmentLimit float64
	ZeroOpen             ZeroOpenPolicy
}

// Validate checks the parameters.
func (c Config) Validate() error {
	if c.TradingWindow < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("trading_window must be positive, got %d", c.TradingWindow))
	}
	if !(c.DailyInvestmentLimit > 0) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("daily_investment_limit must be positive, got %f", c.DailyInvestmentLimit))
	}
	if _, err := ParseZeroOpenPolicy(string(c.ZeroOpen)); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}
	return nil
}

// Simulator runs the greedy allocation strategy over grouped price data
type Simulator struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Simulator after validating cfg
func New(cfg Config, logger *zap.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ZeroOpen == "" {
		cfg.ZeroOpen = ZeroOpenSkip
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{cfg: cfg, logger: logger}, nil
}

// Config returns the parameters the simulator runs with.
func (s *Simulator) Config() Config {
	return s.cfg
}

type allocation struct {
	plan Plan
	ok   bool
}

// Run simulates the strategy over groups. groups need not be sorted; the
// window is always the TradingWindow most recent dates. Empty input yields
// an empty result, not an error.
func (s *Simulator) Run(ctx context.Context, groups []core.DatedGroup) (*Result, error) {
	start := time.Now()

	window := NewWindow(groups, s.cfg.TradingWindow)
	selected := window.Select(groups)

	if window.Len() < s.cfg.TradingWindow {
		s.logger.Info("fewer dates than trading window, window shrinks",
			zap.Int("requested", s.cfg.TradingWindow),
			zap.Int("available", window.Len()),
		)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	allocations := iter.Map(selected, func(g *core.DatedGroup) allocation {
		plan, ok := Allocate(*g, window, s.cfg.DailyInvestmentLimit)
		return allocation{plan: plan, ok: ok}
	})

	var plans []Plan
	var instructions []core.InvestmentInstruction
	for _, a := range allocations {
		if !a.ok || !a.plan.Active() {
			continue
		}
		plans = append(plans, a.plan)
		instructions = append(instructions, a.plan.Instructions...)
	}

	pnl, err := ComputePnL(ctx, selected, plans, s.cfg.ZeroOpen)
	if err != nil {
		return nil, fmt.Errorf("computing pnl: %w", err)
	}

	var skipped int
	for _, d := range pnl.Days {
		skipped += d.SkippedZero
	}
	if skipped > 0 {
		s.logger.Warn("skipped return terms with zero opening price", zap.Int("terms", skipped))
	}

	result := &Result{
		Returns:              pnl.Total,
		TotalInvestmentValue: float64(len(plans)) * s.cfg.DailyInvestmentLimit,
		Window:               window.Dates(),
		TradingWindow:        s.cfg.TradingWindow,
		DailyInvestmentLimit: s.cfg.DailyInvestmentLimit,
		Instructions:         instructions,
		Days:                 pnl.Days,
		Stats:                CalculateStats(pnl.Days),
	}

	s.logger.Info("simulation complete",
		zap.Int("window_dates", window.Len()),
		zap.Int("decision_dates", len(plans)),
		zap.Int("instructions", len(instructions)),
		zap.Float64("returns", result.Returns),
		zap.Float64("total_investment_value", result.TotalInvestmentValue),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}
