package simulation

import (
	"time"

	"github.com/newthinker/tradesim/internal/core"
)

// Plan is the set of instructions one decision date produces.
type Plan struct {
	DecisionDate time.Time
	TargetDate   time.Time
	Instructions []core.InvestmentInstruction
}

// Invested returns the total amount the plan puts to work.
func (p Plan) Invested() float64 {
	var total float64
	for _, in := range p.Instructions {
		total += in.Amount
	}
	return total
}

// Active reports whether the plan holds at least one nonzero instruction.
func (p Plan) Active() bool {
	for _, in := range p.Instructions {
		if in.Amount != 0 {
			return true
		}
	}
	return false
}

// Allocate applies the greedy rule to one day's records. dailyLimit is split
// across the stocks that gained on group.Date, in proportion to their gain,
// and every instruction targets the next older date in w.
//
// ok is false when group.Date is the window floor or outside the window. A
// day on which nothing gained yields an empty plan with ok true.
//
// Allocate is pure and may be called concurrently.
func Allocate(group core.DatedGroup, w *Window, dailyLimit float64) (Plan, bool) {
	decision := core.TruncateDate(group.Date)
	target, ok := w.Target(decision)
	if !ok {
		return Plan{}, false
	}

	plan := Plan{DecisionDate: decision, TargetDate: target}

	var sumPositive float64
	for _, rec := range group.Records {
		if c := rec.Change(); c > 0 {
			sumPositive += c
		}
	}
	if sumPositive == 0 {
		return plan, true
	}

	for _, rec := range group.Records {
		c := rec.Change()
		if c <= 0 {
			continue
		}
		plan.Instructions = append(plan.Instructions, core.InvestmentInstruction{
			DecisionDate: decision,
			TargetDate:   target,
			Symbol:       rec.Symbol,
			Amount:       c / sumPositive * dailyLimit,
		})
	}
	return plan, true
}
