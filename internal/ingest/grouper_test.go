package ingest

import (
	"fmt"
	"testing"
	"time"

	"github.com/newthinker/tradesim/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrouper_Group(t *testing.T) {
	lines := Lines(
		"Date,Open,High,Low,Close,Adj Close,Volume,Symbol",
		"2024-01-02,10,12,9,12,12,100,A",
		"2024-01-02,20,21,18,19,19,100,B",
		"2024-01-04,12,18,12,18,18,100,A",
		"not,a,price,line",
		"2024-01-03,19,21,19,21,21,100,B",
		"2024-01-04,19,21,19,21,21,100,B",
		"",
	)

	g := NewGrouper(DefaultFormat(), nil)
	result := g.Group(lines)

	require.Len(t, result.Groups, 3)
	assert.Equal(t, 5, result.Parsed)
	assert.Equal(t, 3, result.Dropped)

	wantDates := []time.Time{
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	for i, want := range wantDates {
		assert.True(t, result.Groups[i].Date.Equal(want), "group %d date = %v", i, result.Groups[i].Date)
	}

	assert.ElementsMatch(t, []core.PriceRecord{
		{Symbol: "A", Open: 12, AdjClose: 18},
		{Symbol: "B", Open: 19, AdjClose: 21},
	}, result.Groups[0].Records)
}

func TestGrouper_HeaderNeverGrouped(t *testing.T) {
	const dates = 7
	const perDate = 5

	lines := Lines("Date,Open,High,Low,Close,Adj Close,Volume,Symbol")
	for d := 0; d < dates; d++ {
		day := time.Date(2023, 3, 1+d, 0, 0, 0, 0, time.UTC).Format(core.DateLayout)
		for s := 0; s < perDate; s++ {
			lines = append(lines, Line{Text: fmt.Sprintf("%s,%d,0,0,0,%d,0,S%d", day, 10+s, 11+s, s)})
		}
	}
	// header repeated mid-stream, as when files are concatenated
	lines = append(lines[:10], append(Lines("Date,Open,High,Low,Close,Adj Close,Volume,Symbol"), lines[10:]...)...)

	result := NewGrouper(DefaultFormat(), nil).Group(lines)

	require.Len(t, result.Groups, dates)
	assert.Equal(t, 2, result.Dropped)
	for i, group := range result.Groups {
		assert.Len(t, group.Records, perDate)
		for _, rec := range group.Records {
			assert.NotContains(t, rec.Symbol, "Date")
			assert.NotEqual(t, "Symbol", rec.Symbol)
		}
		if i > 0 {
			assert.True(t, group.Date.Before(result.Groups[i-1].Date), "dates must be strictly descending")
		}
	}
}

func TestGrouper_KeepsDuplicateRecords(t *testing.T) {
	lines := Lines(
		"2024-01-02,10,0,0,0,12,0,A",
		"2024-01-02,10,0,0,0,12,0,A",
	)
	result := NewGrouper(DefaultFormat(), nil).Group(lines)

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Records, 2)
}

func TestGrouper_Empty(t *testing.T) {
	result := NewGrouper(DefaultFormat(), nil).Group(nil)
	assert.Empty(t, result.Groups)
	assert.Zero(t, result.Parsed)
	assert.Zero(t, result.Dropped)
}
