package llm

import "context"

// Provider completes single-turn prompts against a hosted model
type Provider interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (*Completion, error)
}

// Prompt is one system + user exchange
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completion is the model's answer to a Prompt
type Completion struct {
	Text         string
	StopReason   string
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens applies when a Prompt leaves MaxTokens unset.
const DefaultMaxTokens = 1024

// MaxTokensOr returns p.MaxTokens, or DefaultMaxTokens when unset.
func (p Prompt) MaxTokensOr() int {
	if p.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return p.MaxTokens
}
