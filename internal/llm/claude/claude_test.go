package claude

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/tradesim/internal/core"
	"github.com/newthinker/tradesim/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model", "")
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing, got %v", err)
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != defaultModel {
		t.Errorf("expected default model %s, got %s", defaultModel, p.model)
	}
}

func TestComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "Two decisions, one winner."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	p, err := New("test-key", "claude-test", srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	c, err := p.Complete(context.Background(), llm.Prompt{System: "be brief", User: "summarize"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if c.Text != "Two decisions, one winner." {
		t.Errorf("unexpected text %q", c.Text)
	}
	if c.InputTokens != 12 || c.OutputTokens != 5 {
		t.Errorf("unexpected usage %+v", c)
	}
	if got["model"] != "claude-test" {
		t.Errorf("expected model claude-test in request, got %v", got["model"])
	}
	if got["max_tokens"].(float64) != llm.DefaultMaxTokens {
		t.Errorf("expected default max_tokens, got %v", got["max_tokens"])
	}
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	p, _ := New("test-key", "", srv.URL)
	_, err := p.Complete(context.Background(), llm.Prompt{User: "hi"})
	if !errors.Is(err, core.ErrLLMFailed) {
		t.Errorf("expected ErrLLMFailed, got %v", err)
	}
}
