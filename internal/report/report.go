// Package report renders simulation results for terminals and LLM narration.
package report

import (
	"fmt"
	"io"

	"github.com/newthinker/tradesim/internal/core"
	"github.com/newthinker/tradesim/internal/simulation"
	"github.com/olekukonko/tablewriter"
)

// Options controls which tables Render prints.
type Options struct {
	// Instructions caps the instruction table; 0 hides it, negative prints all.
	Instructions int
	// HideDays suppresses the per-day table.
	HideDays bool
}

// Render writes a summary block followed by the per-day and instruction tables.
func Render(w io.Writer, res *simulation.Result, opts Options) error {
	fmt.Fprintln(w, "=== Simulation ===")
	if len(res.Window) > 0 {
		fmt.Fprintf(w, "Window:           %s to %s (%d dates)\n",
			res.Start().Format(core.DateLayout), res.End().Format(core.DateLayout), len(res.Window))
	} else {
		fmt.Fprintln(w, "Window:           empty")
	}
	fmt.Fprintf(w, "Daily limit:      %.2f\n", res.DailyInvestmentLimit)
	fmt.Fprintf(w, "Returns:          %.2f\n", res.Returns)
	fmt.Fprintf(w, "Total investment: %.2f\n", res.TotalInvestmentValue)
	fmt.Fprintf(w, "Net profit:       %+.2f (%+.2f%%)\n", res.NetProfit(), res.ReturnPct())
	if res.Stats.ActiveDays > 0 {
		fmt.Fprintf(w, "Win rate:         %.1f%% (%d/%d days)\n",
			res.Stats.WinRate, res.Stats.WinningDays, res.Stats.ActiveDays)
		fmt.Fprintf(w, "Max drawdown:     %.2f%%\n", res.Stats.MaxDrawdown)
		fmt.Fprintf(w, "Sharpe ratio:     %.2f\n", res.Stats.SharpeRatio)
	}

	if !opts.HideDays && len(res.Days) > 0 {
		fmt.Fprintln(w)
		if err := renderDays(w, res.Days); err != nil {
			return err
		}
	}

	if opts.Instructions != 0 && len(res.Instructions) > 0 {
		fmt.Fprintln(w)
		if err := renderInstructions(w, res.Instructions, opts.Instructions); err != nil {
			return err
		}
	}
	return nil
}

func renderDays(w io.Writer, days []simulation.DayResult) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Decision", "Target", "Invested", "Value", "Return", "Matched", "Unmatched"}),
	)
	for _, d := range days {
		if err := table.Append([]string{
			d.DecisionDate.Format(core.DateLayout),
			d.TargetDate.Format(core.DateLayout),
			fmt.Sprintf("%.2f", d.Invested),
			fmt.Sprintf("%.2f", d.Value),
			fmt.Sprintf("%+.2f%%", d.Return()*100),
			fmt.Sprintf("%d", d.Matched),
			fmt.Sprintf("%d", d.Unmatched),
		}); err != nil {
			return fmt.Errorf("rendering days: %w", err)
		}
	}
	return table.Render()
}

func renderInstructions(w io.Writer, instructions []core.InvestmentInstruction, limit int) error {
	shown := instructions
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Decision", "Target", "Symbol", "Amount"}),
	)
	for _, inst := range shown {
		if err := table.Append([]string{
			inst.DecisionDate.Format(core.DateLayout),
			inst.TargetDate.Format(core.DateLayout),
			inst.Symbol,
			fmt.Sprintf("%.2f", inst.Amount),
		}); err != nil {
			return fmt.Errorf("rendering instructions: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	if len(shown) < len(instructions) {
		fmt.Fprintf(w, "... %d more instructions\n", len(instructions)-len(shown))
	}
	return nil
}
