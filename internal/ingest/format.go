package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/tradesim/internal/core"
)

// Format describes where the fields of a delimited price line live.
// Field positions are 0-based. A negative SymbolField means the symbol
// comes from the line's source (for one-file-per-ticker datasets).
type Format struct {
	// HeaderSentinel marks a header line when it is the whole date field.
	HeaderSentinel string
	Delimiter      string
	DateLayout     string
	DateField      int
	OpenField      int
	AdjCloseField  int
	SymbolField    int
}

// DefaultFormat matches Yahoo-style exports with a trailing symbol column:
// Date,Open,High,Low,Close,Adj Close,Volume,Symbol
func DefaultFormat() Format {
	return Format{
		HeaderSentinel: "Date",
		Delimiter:      ",",
		DateLayout:     core.DateLayout,
		DateField:      0,
		OpenField:      1,
		AdjCloseField:  5,
		SymbolField:    7,
	}
}

// Line is a raw input line together with the symbol implied by its source.
type Line struct {
	Text   string
	Symbol string
}

// Lines wraps plain text lines that carry their own symbol column.
func Lines(texts ...string) []Line {
	out := make([]Line, len(texts))
	for i, t := range texts {
		out[i] = Line{Text: t}
	}
	return out
}

// ParseLine turns one line into a dated record. ok is false for header
// lines, blank lines and anything malformed.
func (f Format) ParseLine(line Line) (date time.Time, rec core.PriceRecord, ok bool) {
	text := strings.TrimSpace(line.Text)
	if text == "" {
		return time.Time{}, core.PriceRecord{}, false
	}
	fields := strings.Split(text, f.Delimiter)
	field := func(i int) (string, bool) {
		if i < 0 || i >= len(fields) {
			return "", false
		}
		return strings.Trim(strings.TrimSpace(fields[i]), `"`), true
	}

	rawDate, ok := field(f.DateField)
	if !ok || (f.HeaderSentinel != "" && rawDate == f.HeaderSentinel) {
		return time.Time{}, core.PriceRecord{}, false
	}
	date, err := time.Parse(f.DateLayout, rawDate)
	if err != nil {
		return time.Time{}, core.PriceRecord{}, false
	}

	open, ok := parsePrice(field(f.OpenField))
	if !ok {
		return time.Time{}, core.PriceRecord{}, false
	}
	adjClose, ok := parsePrice(field(f.AdjCloseField))
	if !ok {
		return time.Time{}, core.PriceRecord{}, false
	}

	symbol := line.Symbol
	if f.SymbolField >= 0 {
		symbol, ok = field(f.SymbolField)
		if !ok {
			return time.Time{}, core.PriceRecord{}, false
		}
	}
	if symbol == "" {
		return time.Time{}, core.PriceRecord{}, false
	}

	return core.TruncateDate(date), core.PriceRecord{
		Symbol:   symbol,
		Open:     open,
		AdjClose: adjClose,
	}, true
}

func parsePrice(raw string, present bool) (float64, bool) {
	if !present || raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
