package simulation

import (
	"sync"
	"testing"
	"time"

	"github.com/newthinker/tradesim/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow_RanksMostRecentFirst(t *testing.T) {
	groups := []core.DatedGroup{group(5), group(4), group(3), group(2), group(1)}

	w := NewWindow(groups, 3)

	require.Equal(t, 3, w.Len())
	assert.Equal(t, []time.Time{day(5), day(4), day(3)}, w.Dates())

	for i, want := range []int{5, 4, 3} {
		r, ok := w.Rank(day(want))
		assert.True(t, ok)
		assert.Equal(t, i, r)
	}
	assert.False(t, w.Contains(day(2)), "dates past the window are excluded")

	latest, _ := w.Latest()
	floor, _ := w.Floor()
	assert.Equal(t, day(5), latest)
	assert.Equal(t, day(3), floor)
}

func TestNewWindow_UnsortedAndDuplicateInput(t *testing.T) {
	groups := []core.DatedGroup{group(2), group(9), group(4), group(9)}

	w := NewWindow(groups, 10)

	assert.Equal(t, []time.Time{day(9), day(4), day(2)}, w.Dates())
}

func TestNewWindow_ShrinksWhenFewerDates(t *testing.T) {
	w := NewWindow([]core.DatedGroup{group(2), group(1)}, 30)
	assert.Equal(t, 2, w.Len())

	empty := NewWindow(nil, 30)
	assert.Equal(t, 0, empty.Len())
	_, ok := empty.Floor()
	assert.False(t, ok)
	_, ok = empty.Latest()
	assert.False(t, ok)
}

func TestWindow_Target(t *testing.T) {
	w := NewWindow([]core.DatedGroup{group(3), group(2), group(1)}, 3)

	target, ok := w.Target(day(3))
	assert.True(t, ok)
	assert.Equal(t, day(2), target, "decisions realize on the next older date")

	target, ok = w.Target(day(2))
	assert.True(t, ok)
	assert.Equal(t, day(1), target)

	_, ok = w.Target(day(1))
	assert.False(t, ok, "floor has no target")

	_, ok = w.Target(day(20))
	assert.False(t, ok, "dates outside the window have no target")
}

func TestWindow_RankIgnoresTimeOfDay(t *testing.T) {
	w := NewWindow([]core.DatedGroup{group(3)}, 1)
	r, ok := w.Rank(day(3).Add(15 * time.Hour))
	assert.True(t, ok)
	assert.Equal(t, 0, r)
}

func TestWindow_Select(t *testing.T) {
	groups := []core.DatedGroup{
		group(1, rec("OLD", 1, 2)),
		group(3, rec("A", 1, 2)),
		group(2, rec("B", 1, 2)),
		group(3, rec("C", 1, 2)),
	}
	w := NewWindow(groups, 2)

	selected := w.Select(groups)

	require.Len(t, selected, 2)
	assert.Equal(t, day(3), selected[0].Date)
	assert.Equal(t, []core.PriceRecord{rec("A", 1, 2), rec("C", 1, 2)}, selected[0].Records)
	assert.Equal(t, day(2), selected[1].Date)
	assert.Equal(t, []core.PriceRecord{rec("B", 1, 2)}, selected[1].Records)
}

func TestWindow_ConcurrentReads(t *testing.T) {
	groups := make([]core.DatedGroup, 0, 20)
	for d := 1; d <= 20; d++ {
		groups = append(groups, group(d))
	}
	w := NewWindow(groups, 20)

	var wg sync.WaitGroup
	for d := 1; d <= 20; d++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, ok := w.Rank(day(d))
			assert.True(t, ok)
			assert.Equal(t, 20-d, r)
		}()
	}
	wg.Wait()
}
