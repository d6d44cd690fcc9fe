package simulation

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// Stats holds performance statistics over the realized days
type Stats struct {
	ActiveDays      int     `json:"active_days"`
	WinningDays     int     `json:"winning_days"`
	LosingDays      int     `json:"losing_days"` // Break-even days count as neither
	WinRate         float64 `json:"win_rate"`          // Percentage of days with a positive return
	TotalReturn     float64 `json:"total_return"`      // Net return percentage on invested capital
	MeanDailyReturn float64 `json:"mean_daily_return"` // Percentage
	DailyStdDev     float64 `json:"daily_std_dev"`     // Percentage
	MaxDrawdown     float64 `json:"max_drawdown"`      // Largest peak-to-trough decline, percentage
	SharpeRatio     float64 `json:"sharpe_ratio"`      // Annualized, risk-free rate of 0
}

// CalculateStats computes performance statistics from realized days.
// days may be in any order; drawdown is measured chronologically.
func CalculateStats(days []DayResult) Stats {
	ordered := chronological(days)

	var winning, losing int
	var invested, value float64
	var returns []float64

	for _, d := range ordered {
		if d.Invested == 0 {
			continue
		}
		r := d.Return()
		returns = append(returns, r)
		invested += d.Invested
		value += d.Value
		switch {
		case r > 0:
			winning++
		case r < 0:
			losing++
		}
	}

	if len(returns) == 0 {
		return Stats{}
	}

	s := Stats{
		ActiveDays:  len(returns),
		WinningDays: winning,
		LosingDays:  losing,
		WinRate:     float64(winning) / float64(len(returns)) * 100,
		TotalReturn: (value - invested) / invested * 100,
		MaxDrawdown: calculateMaxDrawdown(returns) * 100,
		SharpeRatio: calculateSharpeRatio(returns),
	}

	if mean, err := stats.Mean(returns); err == nil {
		s.MeanDailyReturn = mean * 100
	}
	if sd, err := stats.StandardDeviationSample(returns); err == nil && !math.IsNaN(sd) {
		s.DailyStdDev = sd * 100
	}

	return s
}

func chronological(days []DayResult) []DayResult {
	out := make([]DayResult, len(days))
	copy(out, days)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TargetDate.Before(out[j].TargetDate)
	})
	return out
}

// calculateMaxDrawdown finds the largest peak-to-trough decline
func calculateMaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	// equity starts at 1.0, so a loss on the first day is a drawdown
	var maxDD float64
	peak := 1.0
	cumulative := 1.0

	for _, r := range returns {
		cumulative *= (1 + r)
		if cumulative > peak {
			peak = cumulative
		}
		if dd := (peak - cumulative) / peak; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// calculateSharpeRatio computes annualized risk-adjusted return
func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	stdDev, err := stats.StandardDeviationSample(returns)
	if err != nil || stdDev == 0 || math.IsNaN(stdDev) {
		return 0
	}

	// ~252 trading days
	return (mean * 252) / (stdDev * math.Sqrt(252))
}
