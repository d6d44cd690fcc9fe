package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/tradesim/internal/core"
	"github.com/newthinker/tradesim/internal/llm"
	"github.com/newthinker/tradesim/internal/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func sampleResult() *simulation.Result {
	days := []simulation.DayResult{
		{TargetDate: day(1), DecisionDate: day(2), Invested: 100, Value: 113.75, Matched: 2},
	}
	return &simulation.Result{
		Returns:              113.75,
		TotalInvestmentValue: 100,
		Window:               []time.Time{day(2), day(1)},
		TradingWindow:        2,
		DailyInvestmentLimit: 100,
		Instructions: []core.InvestmentInstruction{
			{DecisionDate: day(2), TargetDate: day(1), Symbol: "AAA", Amount: 75},
			{DecisionDate: day(2), TargetDate: day(1), Symbol: "BBB", Amount: 25},
		},
		Days:  days,
		Stats: simulation.CalculateStats(days),
	}
}

type fakeProvider struct {
	prompt llm.Prompt
	text   string
	err    error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, p llm.Prompt) (*llm.Completion, error) {
	f.prompt = p
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.text}, nil
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResult(), Options{Instructions: -1}))

	out := buf.String()
	assert.Contains(t, out, "2024-01-01 to 2024-01-02 (2 dates)")
	assert.Contains(t, out, "Returns:          113.75")
	assert.Contains(t, out, "Net profit:       +13.75 (+13.75%)")
	assert.Contains(t, out, "AAA")
	assert.Contains(t, out, "75.00")
	assert.Contains(t, out, "+13.75%")
}

func TestRender_InstructionLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResult(), Options{Instructions: 1, HideDays: true}))

	out := buf.String()
	assert.Contains(t, out, "AAA")
	assert.NotContains(t, out, "BBB")
	assert.Contains(t, out, "... 1 more instructions")
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &simulation.Result{}, Options{Instructions: -1}))

	out := buf.String()
	assert.Contains(t, out, "Window:           empty")
	assert.NotContains(t, out, "Win rate")
}

func TestDescribe(t *testing.T) {
	desc := Describe(sampleResult())

	assert.Contains(t, desc, "Returns: 113.75")
	assert.Contains(t, desc, "Total invested: 100.00")
	// larger allocation listed first
	assert.Less(t, strings.Index(desc, "- AAA: 75.00"), strings.Index(desc, "- BBB: 25.00"))
}

func TestNarrator(t *testing.T) {
	p := &fakeProvider{text: "  A profitable single day.\n"}
	text, err := NewNarrator(p, nil).Narrate(context.Background(), sampleResult())

	require.NoError(t, err)
	assert.Equal(t, "A profitable single day.", text)
	assert.Contains(t, p.prompt.User, "Returns: 113.75")
	assert.NotEmpty(t, p.prompt.System)
}

func TestNarrator_ProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("rate limited")}
	_, err := NewNarrator(p, nil).Narrate(context.Background(), sampleResult())

	assert.ErrorIs(t, err, core.ErrLLMFailed)
}
