package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/moonbeamcafe/barista/internal/config"
	"github.com/moonbeamcafe/barista/internal/services"
	"github.com/moonbeamcafe/barista/pkg/httpext"
	"github.com/rs/zerolog/log"
)

type createSessionRequest struct {
	Identity string `json:"identity,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Room      string `json:"room"`
	Identity  string `json:"identity"`
	Token     string `json:"token"`
	WSURL     string `json:"ws_url"`
}

// SessionHandler creates and ends ordering sessions. Each session gets its
// own room; when the barista agent is configured it is dispatched into the
// room right after the session is created.
type SessionHandler struct {
	svcs *services.Services

	mu     sync.Mutex
	agents map[string]func() // sessionID -> agent teardown
}

func NewSessionHandler(svcs *services.Services) *SessionHandler {
	return &SessionHandler{
		svcs:   svcs,
		agents: make(map[string]func()),
	}
}

// HandleCreateSession handles POST /v1/session.
func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	// An empty body means all defaults; anything else must be JSON.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpext.JsonError(w, "invalid session request", http.StatusBadRequest)
		return
	}

	identity := req.Identity
	if identity == "" {
		identity = "customer-" + shortID()
	}
	roomName := "order-" + shortID()

	record, token, err := h.svcs.GetSessionService().Create(r.Context(), roomName, identity)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		httpext.JsonError(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	h.dispatchAgent(record.SessionID, roomName)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(createSessionResponse{
		SessionID: record.SessionID,
		Room:      roomName,
		Identity:  identity,
		Token:     token,
		WSURL:     config.GetAdvertisedWSURL() + "/v1/rooms/" + roomName + "/ws",
	}); err != nil {
		log.Error().Err(err).Msg("Failed to encode session response")
	}
}

// HandleEndSession handles DELETE /v1/session/{id}. Ending an unknown
// session is not an error; teardown is best-effort.
func (h *SessionHandler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := h.svcs.GetSessionService().End(r.Context(), sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("Failed to delete session record")
	}

	h.mu.Lock()
	teardown := h.agents[sessionID]
	delete(h.agents, sessionID)
	h.mu.Unlock()
	if teardown != nil {
		teardown()
	}

	w.WriteHeader(http.StatusNoContent)
}

// dispatchAgent sends the barista into the session's room, when configured.
func (h *SessionHandler) dispatchAgent(sessionID, roomName string) {
	agentSvc := h.svcs.GetAgentService()
	if agentSvc == nil {
		return
	}

	sessions := h.svcs.GetSessionService()
	go func() {
		token, err := sessions.MintRoomToken(roomName, agentSvc.Identity())
		if err != nil {
			log.Error().Err(err).Str("room", roomName).Msg("Failed to mint agent token")
			return
		}

		wsURL := config.GetAdvertisedWSURL() + "/v1/rooms/" + roomName + "/ws"
		_, teardown, err := agentSvc.Join(context.Background(), wsURL, token)
		if err != nil {
			log.Error().Err(err).Str("room", roomName).Msg("Failed to dispatch barista agent")
			return
		}

		h.mu.Lock()
		h.agents[sessionID] = teardown
		h.mu.Unlock()
	}()
}

func shortID() string {
	return strings.Split(uuid.New().String(), "-")[0]
}
