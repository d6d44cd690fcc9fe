package openai

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
	if p.model != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %s", p.model)
	}
}

func chatServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Profitable week."}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 20, "completion_tokens": 3, "total_tokens": 23}
	}`, &seen)

	p, err := New("test-key", "", srv.URL+"/v1")
	if err != nil {
		t.Fatal(err)
	}

	c, err := p.Complete(context.Background(), llm.Prompt{System: "be brief", User: "summarize", MaxTokens: 200})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if c.Text != "Profitable week." || c.StopReason != "stop" {
		t.Errorf("unexpected completion %+v", c)
	}
	if c.InputTokens != 20 || c.OutputTokens != 3 {
		t.Errorf("unexpected usage %+v", c)
	}

	msgs := seen["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(msgs))
	}
	if msgs[0].(map[string]any)["role"] != "system" {
		t.Errorf("expected system message first, got %v", msgs[0])
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"id": "x", "choices": []}`, nil)

	p, _ := New("test-key", "", srv.URL+"/v1")
	_, err := p.Complete(context.Background(), llm.Prompt{User: "hi"})
	if !errors.Is(err, core.ErrLLMFailed) {
		t.Errorf("expected ErrLLMFailed, got %v", err)
	}
}

func TestComplete_APIError(t *testing.T) {
	srv := chatServer(t, http.StatusUnauthorized, `{"error": {"message": "bad key", "type": "invalid_request_error"}}`, nil)

	p, _ := New("test-key", "", srv.URL+"/v1")
	_, err := p.Complete(context.Background(), llm.Prompt{User: "hi"})
	if !errors.Is(err, core.ErrLLMFailed) {
		t.Errorf("expected ErrLLMFailed, got %v", err)
	}
}
