package simulation

import (
	"time"

	"github.com/newthinker/tradesim/internal/core"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func rec(symbol string, open, adjClose float64) core.PriceRecord {
	return core.PriceRecord{Symbol: symbol, Open: open, AdjClose: adjClose}
}

func group(d int, records ...core.PriceRecord) core.DatedGroup {
	return core.DatedGroup{Date: day(d), Records: records}
}
