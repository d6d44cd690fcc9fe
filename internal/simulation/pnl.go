package simulation

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/newthinker/tradesim/internal/core"
	"golang.org/x/sync/errgroup"
)

// ZeroOpenPolicy decides what happens to a return term whose opening
// price is zero.
type ZeroOpenPolicy string

const (
	// ZeroOpenSkip drops the term; it contributes nothing to the day.
	ZeroOpenSkip ZeroOpenPolicy = "skip"
	// ZeroOpenFail aborts the simulation with core.ErrZeroOpeningPrice.
	ZeroOpenFail ZeroOpenPolicy = "fail"
)

// ParseZeroOpenPolicy validates a policy name. Empty means skip.
func ParseZeroOpenPolicy(s string) (ZeroOpenPolicy, error) {
	switch ZeroOpenPolicy(s) {
	case "", ZeroOpenSkip:
		return ZeroOpenSkip, nil
	case ZeroOpenFail:
		return ZeroOpenFail, nil
	default:
		return "", fmt.Errorf("unknown zero open policy: %q", s)
	}
}

// DayResult is the realized outcome of one plan on its target date.
type DayResult struct {
	TargetDate   time.Time `json:"target_date"`
	DecisionDate time.Time `json:"decision_date"`
	Invested     float64   `json:"invested"`
	Value        float64   `json:"value"`
	Matched      int       `json:"matched"`
	Unmatched    int       `json:"unmatched"`
	SkippedZero  int       `json:"skipped_zero_open"`
}

// Return is the fractional gain of the day: value over invested, minus one.
func (d DayResult) Return() float64 {
	if d.Invested == 0 {
		return 0
	}
	return d.Value/d.Invested - 1
}

// PnL is the joined outcome across all target dates.
type PnL struct {
	Total float64
	// Days follow the order of the plans passed to ComputePnL.
	Days []DayResult
}

// JoinDate prices a plan against the records of its target date. Every
// (record, instruction) pair with the same symbol adds
// (1 + (adjClose-open)/open) * amount to the day's value. Instructions with
// no record on the day contribute nothing.
//
// JoinDate is pure and may be called concurrently.
func JoinDate(records []core.PriceRecord, plan Plan, policy ZeroOpenPolicy) (DayResult, error) {
	day := DayResult{
		TargetDate:   plan.TargetDate,
		DecisionDate: plan.DecisionDate,
		Invested:     plan.Invested(),
	}

	bySymbol := make(map[string][]int, len(plan.Instructions))
	for i, in := range plan.Instructions {
		bySymbol[in.Symbol] = append(bySymbol[in.Symbol], i)
	}

	matchedInstr := make([]bool, len(plan.Instructions))
	for _, rec := range records {
		idx, ok := bySymbol[rec.Symbol]
		if !ok {
			continue
		}
		for _, i := range idx {
			matchedInstr[i] = true
			if rec.Open == 0 {
				if policy == ZeroOpenFail {
					return DayResult{}, core.WrapError(core.ErrZeroOpeningPrice,
						fmt.Errorf("%s on %s", rec.Symbol, plan.TargetDate.Format(core.DateLayout)))
				}
				day.SkippedZero++
				continue
			}
			day.Value += (1 + rec.Change()/rec.Open) * plan.Instructions[i].Amount
			day.Matched++
		}
	}

	for _, m := range matchedInstr {
		if !m {
			day.Unmatched++
		}
	}
	return day, nil
}

// ComputePnL inner-joins price groups and plans on target date and sums the
// realized value. Dates are joined in parallel; the total is accumulated in
// plan order so the result does not depend on scheduling.
func ComputePnL(ctx context.Context, prices []core.DatedGroup, plans []Plan, policy ZeroOpenPolicy) (*PnL, error) {
	byDate := make(map[time.Time][]core.PriceRecord, len(prices))
	for _, g := range prices {
		d := core.TruncateDate(g.Date)
		byDate[d] = append(byDate[d], g.Records...)
	}

	days := make([]*DayResult, len(plans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, plan := range plans {
		records, ok := byDate[core.TruncateDate(plan.TargetDate)]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			day, err := JoinDate(records, plan, policy)
			if err != nil {
				return err
			}
			days[i] = &day
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &PnL{Days: make([]DayResult, 0, len(plans))}
	for _, d := range days {
		if d == nil {
			continue
		}
		result.Total += d.Value
		result.Days = append(result.Days, *d)
	}
	return result, nil
}
