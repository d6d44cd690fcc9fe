package simulation

import (
	"time"

	"github.com/newthinker/tradesim/internal/core"
)

// Result holds the complete simulation output
type Result struct {
	Returns              float64                      `json:"returns"`
	TotalInvestmentValue float64                      `json:"total_investment_value"`
	Window               []time.Time                  `json:"window"`
	TradingWindow        int                          `json:"trading_window"`
	DailyInvestmentLimit float64                      `json:"daily_investment_limit"`
	Instructions         []core.InvestmentInstruction `json:"instructions"`
	Days                 []DayResult                  `json:"days"`
	Stats                Stats                        `json:"stats"`
}

// NetProfit is what the strategy earned on top of the capital it invested.
func (r *Result) NetProfit() float64 {
	return r.Returns - r.TotalInvestmentValue
}

// ReturnPct is NetProfit as a percentage of invested capital.
func (r *Result) ReturnPct() float64 {
	if r.TotalInvestmentValue == 0 {
		return 0
	}
	return r.NetProfit() / r.TotalInvestmentValue * 100
}

// Start returns the oldest date of the window (the floor).
func (r *Result) Start() time.Time {
	if len(r.Window) == 0 {
		return time.Time{}
	}
	return r.Window[len(r.Window)-1]
}

// End returns the most recent date of the window.
func (r *Result) End() time.Time {
	if len(r.Window) == 0 {
		return time.Time{}
	}
	return r.Window[0]
}
