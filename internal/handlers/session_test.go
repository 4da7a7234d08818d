package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/moonbeamcafe/barista/internal/roomserver"
	"github.com/moonbeamcafe/barista/internal/services"
)

func newTestRouter(t *testing.T) *httptest.Server {
	t.Helper()

	svcs := services.Initialize()
	hub := roomserver.NewHub(roomserver.DefaultTimeouts)
	srv := httptest.NewServer(NewRouter(svcs, hub))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateSession(t *testing.T) {
	srv := newTestRouter(t)

	t.Run("empty body uses defaults", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/v1/session", "application/json", nil)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, resp.StatusCode)
		}

		var body createSessionResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if body.SessionID == "" || body.Token == "" {
			t.Error("Expected session id and token to be set")
		}
		if !strings.HasPrefix(body.Room, "order-") {
			t.Errorf("Expected generated room name, got %q", body.Room)
		}
		if !strings.HasPrefix(body.Identity, "customer-") {
			t.Errorf("Expected generated identity, got %q", body.Identity)
		}
		if !strings.Contains(body.WSURL, "/v1/rooms/"+body.Room+"/ws") {
			t.Errorf("Expected ws url to target the room, got %q", body.WSURL)
		}
	})

	t.Run("explicit identity respected", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/v1/session", "application/json",
			strings.NewReader(`{"identity":"ana"}`))
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		var body createSessionResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if body.Identity != "ana" {
			t.Errorf("Expected identity ana, got %q", body.Identity)
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/v1/session", "application/json", strings.NewReader(`{oops`))
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
		}
	})
}

func TestEndSession(t *testing.T) {
	srv := newTestRouter(t)

	resp, err := http.Post(srv.URL+"/v1/session", "application/json", nil)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	var body createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/session/"+body.SessionID, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to end session: %v", err)
	}
	defer del.Body.Close()

	if del.StatusCode != http.StatusNoContent {
		t.Errorf("Expected status %d, got %d", http.StatusNoContent, del.StatusCode)
	}
}

func TestSessionRateLimit(t *testing.T) {
	os.Setenv("SESSION_RATE_LIMIT", "2")
	defer os.Unsetenv("SESSION_RATE_LIMIT")

	srv := newTestRouter(t)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/session", nil)
		if err != nil {
			t.Fatalf("Failed to build request: %v", err)
		}
		req.Header.Set("X-Forwarded-For", "203.0.113.9")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("Expected first two requests to pass, got %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be limited, got %v", statuses)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestRouter(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}
