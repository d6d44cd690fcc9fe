package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/go-cmp/cmp"
	"github.com/newthinker/tradesim/internal/core"
	"github.com/newthinker/tradesim/internal/simulation"
	"github.com/newthinker/tradesim/internal/storage/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func sampleResult() *simulation.Result {
	return &simulation.Result{
		Returns:              113.75,
		TotalInvestmentValue: 100,
		Window:               []time.Time{day(2), day(1)},
		TradingWindow:        2,
		DailyInvestmentLimit: 100,
		Instructions: []core.InvestmentInstruction{
			{DecisionDate: day(2), TargetDate: day(1), Symbol: "A", Amount: 75},
			{DecisionDate: day(2), TargetDate: day(1), Symbol: "B", Amount: 25},
		},
		Days: []simulation.DayResult{
			{TargetDate: day(1), DecisionDate: day(2), Invested: 100, Value: 113.75, Matched: 2},
		},
	}
}

type failingStore struct{ archive.Storage }

func (failingStore) Write(ctx context.Context, path string, data []byte) error {
	return errors.New("disk full")
}

func TestExport(t *testing.T) {
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	paths, err := New(store, nil).Export(ctx, "run-1", sampleResult())
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1/result.json", "run-1/instructions.csv", "run-1/days.csv"}, paths)

	data, err := store.Read(ctx, "run-1/instructions.csv")
	require.NoError(t, err)

	var rows []*instructionRow
	require.NoError(t, gocsv.UnmarshalBytes(data, &rows))
	want := []*instructionRow{
		{DecisionDate: "2024-01-02", TargetDate: "2024-01-01", Symbol: "A", Amount: 75},
		{DecisionDate: "2024-01-02", TargetDate: "2024-01-01", Symbol: "B", Amount: 25},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}

	data, err = store.Read(ctx, "run-1/days.csv")
	require.NoError(t, err)
	var days []*dayRow
	require.NoError(t, gocsv.UnmarshalBytes(data, &days))
	require.Len(t, days, 1)
	assert.Equal(t, "2024-01-01", days[0].TargetDate)
	assert.InDelta(t, 0.1375, days[0].Return, 1e-9)
}

func TestLoad_RoundTrip(t *testing.T) {
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = New(store, nil).Export(ctx, "run-2", sampleResult())
	require.NoError(t, err)

	got, err := Load(ctx, store, "run-2")
	require.NoError(t, err)
	assert.Equal(t, 113.75, got.Returns)
	assert.Equal(t, 100.0, got.TotalInvestmentValue)
	assert.Len(t, got.Instructions, 2)
	assert.True(t, got.Window[0].Equal(day(2)))
}

func TestExport_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(failingStore{}, nil).Export(ctx, "", sampleResult())
	assert.ErrorIs(t, err, core.ErrExportFailed)

	paths, err := New(failingStore{}, nil).Export(ctx, "run-3", sampleResult())
	assert.ErrorIs(t, err, core.ErrExportFailed)
	assert.Empty(t, paths)
}
