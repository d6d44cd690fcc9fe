package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/newthinker/tradesim/internal/core"
	"github.com/newthinker/tradesim/internal/llm"
	"github.com/newthinker/tradesim/internal/simulation"
	"go.uber.org/zap"
)

const narratorSystemPrompt = `You are a trading analyst. You are given the outcome of a backtest of a
naive momentum strategy: each day, capital is split across the stocks that
gained that day in proportion to their gain, and invested at the next day's
open. Write a short plain-text summary (at most 6 sentences) covering overall
profit, consistency across days, and the symbols that received the most capital.
Do not give investment advice.`

// topSymbols bounds how many symbols the prompt lists.
const topSymbols = 5

// Narrator turns a result into prose via an LLM provider.
type Narrator struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewNarrator creates a Narrator.
func NewNarrator(provider llm.Provider, logger *zap.Logger) *Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Narrator{provider: provider, logger: logger}
}

// Narrate asks the provider to summarize res.
func (n *Narrator) Narrate(ctx context.Context, res *simulation.Result) (string, error) {
	completion, err := n.provider.Complete(ctx, llm.Prompt{
		System:      narratorSystemPrompt,
		User:        Describe(res),
		MaxTokens:   512,
		Temperature: 0.2,
	})
	if err != nil {
		return "", core.WrapError(core.ErrLLMFailed, err)
	}

	n.logger.Debug("narration complete",
		zap.String("provider", n.provider.Name()),
		zap.Int("input_tokens", completion.InputTokens),
		zap.Int("output_tokens", completion.OutputTokens),
	)
	return strings.TrimSpace(completion.Text), nil
}

// Describe renders the figures of res as the narration prompt body.
func Describe(res *simulation.Result) string {
	var b strings.Builder

	if len(res.Window) > 0 {
		fmt.Fprintf(&b, "Window: %s to %s, %d trading dates\n",
			res.Start().Format(core.DateLayout), res.End().Format(core.DateLayout), len(res.Window))
	}
	fmt.Fprintf(&b, "Daily investment limit: %.2f\n", res.DailyInvestmentLimit)
	fmt.Fprintf(&b, "Total invested: %.2f\n", res.TotalInvestmentValue)
	fmt.Fprintf(&b, "Returns: %.2f\n", res.Returns)
	fmt.Fprintf(&b, "Net profit: %.2f (%.2f%%)\n", res.NetProfit(), res.ReturnPct())
	fmt.Fprintf(&b, "Active days: %d, winning %d, losing %d\n",
		res.Stats.ActiveDays, res.Stats.WinningDays, res.Stats.LosingDays)
	fmt.Fprintf(&b, "Max drawdown: %.2f%%, Sharpe: %.2f\n", res.Stats.MaxDrawdown, res.Stats.SharpeRatio)

	totals := make(map[string]float64)
	for _, inst := range res.Instructions {
		totals[inst.Symbol] += inst.Amount
	}
	symbols := make([]string, 0, len(totals))
	for s := range totals {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool {
		if totals[symbols[i]] != totals[symbols[j]] {
			return totals[symbols[i]] > totals[symbols[j]]
		}
		return symbols[i] < symbols[j]
	})
	if len(symbols) > topSymbols {
		symbols = symbols[:topSymbols]
	}
	if len(symbols) > 0 {
		b.WriteString("Largest allocations:\n")
		for _, s := range symbols {
			fmt.Fprintf(&b, "- %s: %.2f\n", s, totals[s])
		}
	}

	return b.String()
}
