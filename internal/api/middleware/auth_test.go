package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/tradesim/internal/api/response"
)

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		provided   string
		want       int
	}{
		{"valid key", "secret-key", "secret-key", http.StatusOK},
		{"missing key", "secret-key", "", http.StatusUnauthorized},
		{"wrong key", "secret-key", "guess", http.StatusUnauthorized},
		{"auth disabled", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("POST", "/api/simulations", nil)
			if tt.provided != "" {
				req.Header.Set("X-API-Key", tt.provided)
			}
			w := httptest.NewRecorder()
			APIKeyAuth(tt.configured)(handler).ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			if tt.want == http.StatusUnauthorized {
				var resp response.ErrorResponse
				json.Unmarshal(w.Body.Bytes(), &resp)
				if resp.Error.Code != "UNAUTHORIZED" {
					t.Errorf("expected UNAUTHORIZED, got %s", resp.Error.Code)
				}
			}
		})
	}
}
