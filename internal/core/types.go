package core

import "time"

// DateLayout is the calendar-date format used across inputs, exports and the API.
const DateLayout = "2006-01-02"

// PriceRecord is one stock's prices for one trading day
type PriceRecord struct {
	Symbol   string
	Open     float64
	AdjClose float64
}

// Change returns the intraday gain (adjusted close minus open).
func (p PriceRecord) Change() float64 {
	return p.AdjClose - p.Open
}

// Gained reports whether the stock closed above its open.
func (p PriceRecord) Gained() bool {
	return p.Change() > 0
}

// DatedGroup holds every record seen for a single calendar date.
// Duplicate records are kept.
type DatedGroup struct {
	Date    time.Time
	Records []PriceRecord
}

// InvestmentInstruction is an amount to put into a symbol. It is decided
// from DecisionDate's gains and realized against TargetDate's prices.
type InvestmentInstruction struct {
	DecisionDate time.Time `json:"decision_date"`
	TargetDate   time.Time `json:"target_date"`
	Symbol       string    `json:"symbol"`
	Amount       float64   `json:"amount"`
}

// TruncateDate normalizes t to midnight UTC so dates compare by calendar day.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
