package ingest

import (
	"sort"
	"time"

	"github.com/newthinker/tradesim/internal/core"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// Grouping is the outcome of grouping a batch of lines by date.
type Grouping struct {
	// Groups are sorted by date, most recent first.
	Groups  []core.DatedGroup
	Parsed  int
	Dropped int
}

// Grouper parses price lines and groups the records by trading date.
type Grouper struct {
	format Format
	logger *zap.Logger
}

// NewGrouper creates a grouper for the given line format
func NewGrouper(format Format, logger *zap.Logger) *Grouper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Grouper{format: format, logger: logger}
}

type parsedLine struct {
	date time.Time
	rec  core.PriceRecord
	ok   bool
}

// Group parses every line in parallel and groups the survivors by date.
// Header and malformed lines are dropped without error.
func (g *Grouper) Group(lines []Line) *Grouping {
	parsed := iter.Map(lines, func(l *Line) parsedLine {
		date, rec, ok := g.format.ParseLine(*l)
		return parsedLine{date: date, rec: rec, ok: ok}
	})

	byDate := make(map[time.Time][]core.PriceRecord)
	result := &Grouping{}
	for _, p := range parsed {
		if !p.ok {
			result.Dropped++
			continue
		}
		result.Parsed++
		byDate[p.date] = append(byDate[p.date], p.rec)
	}

	result.Groups = make([]core.DatedGroup, 0, len(byDate))
	for date, recs := range byDate {
		result.Groups = append(result.Groups, core.DatedGroup{Date: date, Records: recs})
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		return result.Groups[i].Date.After(result.Groups[j].Date)
	})

	if result.Dropped > 0 {
		g.logger.Debug("dropped unparseable lines",
			zap.Int("dropped", result.Dropped),
			zap.Int("parsed", result.Parsed),
		)
	}

	return result
}
