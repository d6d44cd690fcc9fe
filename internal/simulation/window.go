package simulation

import (
	"sort"
	"time"

	"github.com/newthinker/tradesim/internal/core"
)

// Window is the set of most recent trading dates being simulated, ordered
// most recent first. Position in that order is a date's rank: rank 0 is the
// latest date and the last date is the window floor.
//
// The simulation walks backwards through history. Instructions decided on
// the date at rank r are realized on the date at rank r+1, the next older
// date. The floor has no older date and never decides anything.
//
// A Window is immutable once built and safe to share between goroutines.
type Window struct {
	dates []time.Time
	ranks map[time.Time]int
}

// NewWindow selects the size most recent distinct dates from groups.
// If fewer dates exist the window simply holds all of them.
func NewWindow(groups []core.DatedGroup, size int) *Window {
	seen := make(map[time.Time]struct{}, len(groups))
	dates := make([]time.Time, 0, len(groups))
	for _, g := range groups {
		d := core.TruncateDate(g.Date)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	if size < 0 {
		size = 0
	}
	if len(dates) > size {
		dates = dates[:size]
	}

	ranks := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		ranks[d] = i
	}
	return &Window{dates: dates, ranks: ranks}
}

// Len returns the number of dates in the window.
func (w *Window) Len() int {
	return len(w.dates)
}

// Dates returns a copy of the window dates, most recent first.
func (w *Window) Dates() []time.Time {
	out := make([]time.Time, len(w.dates))
	copy(out, w.dates)
	return out
}

// At returns the date at rank i.
func (w *Window) At(i int) time.Time {
	return w.dates[i]
}

// Rank returns the position of date in the window.
func (w *Window) Rank(date time.Time) (int, bool) {
	r, ok := w.ranks[core.TruncateDate(date)]
	return r, ok
}

// Contains reports whether date is part of the window.
func (w *Window) Contains(date time.Time) bool {
	_, ok := w.Rank(date)
	return ok
}

// Target returns the date on which decisions made on date are realized:
// the date one rank later, i.e. the next older trading date. ok is false for
// the floor and for dates outside the window.
func (w *Window) Target(date time.Time) (time.Time, bool) {
	r, ok := w.Rank(date)
	if !ok || r+1 >= len(w.dates) {
		return time.Time{}, false
	}
	return w.dates[r+1], true
}

// Latest returns the most recent date in the window.
func (w *Window) Latest() (time.Time, bool) {
	if len(w.dates) == 0 {
		return time.Time{}, false
	}
	return w.dates[0], true
}

// Floor returns the oldest date in the window.
func (w *Window) Floor() (time.Time, bool) {
	if len(w.dates) == 0 {
		return time.Time{}, false
	}
	return w.dates[len(w.dates)-1], true
}

// Select returns the groups whose dates fall inside the window, in rank
// order. Groups sharing a date are merged.
func (w *Window) Select(groups []core.DatedGroup) []core.DatedGroup {
	selected := make([]core.DatedGroup, len(w.dates))
	for i, d := range w.dates {
		selected[i].Date = d
	}
	for _, g := range groups {
		r, ok := w.Rank(g.Date)
		if !ok {
			continue
		}
		selected[r].Records = append(selected[r].Records, g.Records...)
	}
	return selected
}
