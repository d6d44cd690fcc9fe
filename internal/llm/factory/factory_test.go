package factory

import (
	"errors"
	"testing"

	"github.com/newthinker/tradesim/internal/config"
	"github.com/newthinker/tradesim/internal/core"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LLMConfig
		wantName string
		wantErr  *core.Error
	}{
		{
			name:     "claude",
			cfg:      config.LLMConfig{Provider: "claude", Claude: config.ClaudeConfig{APIKey: "k"}},
			wantName: "claude",
		},
		{
			name:     "openai with base url",
			cfg:      config.LLMConfig{Provider: "openai", OpenAI: config.OpenAIConfig{APIKey: "k", BaseURL: "http://localhost:11434/v1"}},
			wantName: "openai",
		},
		{
			name:    "claude missing key",
			cfg:     config.LLMConfig{Provider: "claude"},
			wantErr: core.ErrConfigMissing,
		},
		{
			name:    "not configured",
			cfg:     config.LLMConfig{},
			wantErr: core.ErrConfigMissing,
		},
		{
			name:    "unknown",
			cfg:     config.LLMConfig{Provider: "bard"},
			wantErr: core.ErrConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("expected %s provider, got %s", tt.wantName, p.Name())
			}
		})
	}
}
