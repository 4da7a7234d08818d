package httpext

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJsonError(t *testing.T) {
	tests := []struct {
		name    string
		message string
		code    int
	}{
		{"Bad request", "invalid session request", http.StatusBadRequest},
		{"Unauthorized", "missing room token", http.StatusUnauthorized},
		{"Rate limited", "rate limit exceeded", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JsonError(rec, tt.message, tt.code)

			if rec.Code != tt.code {
				t.Errorf("Expected status code %d, got %d", tt.code, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected application/json content type, got %s", ct)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != tt.message {
				t.Errorf("Expected error %q, got %q", tt.message, resp.Error)
			}
		})
	}
}
