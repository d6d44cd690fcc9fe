package notifier

import (
	"context"
	"time"
)

// Run statuses carried by events.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Event describes a finished simulation run
type Event struct {
	RunID                string    `json:"run_id,omitempty"`
	Status               string    `json:"status"`
	Returns              float64   `json:"returns"`
	TotalInvestmentValue float64   `json:"total_investment_value"`
	NetProfit            float64   `json:"net_profit"`
	Instructions         int       `json:"instructions"`
	Exported             []string  `json:"exported,omitempty"`
	Error                string    `json:"error,omitempty"`
	FinishedAt           time.Time `json:"finished_at"`
}

// Notifier delivers run events to an external system
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Notify delivers one event
	Notify(ctx context.Context, e Event) error
}
