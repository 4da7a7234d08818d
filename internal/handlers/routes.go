package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/moonbeamcafe/barista/internal/config"
	"github.com/moonbeamcafe/barista/internal/middleware"
	"github.com/moonbeamcafe/barista/internal/roomserver"
	"github.com/moonbeamcafe/barista/internal/services"
)

// NewRouter builds the HTTP surface: session lifecycle, the room
// websocket, and a health probe.
func NewRouter(svcs *services.Services, hub *roomserver.Hub) *mux.Router {
	sessionHandler := NewSessionHandler(svcs)
	roomHandler := roomserver.NewHandler(hub, svcs.GetSessionService())

	r := mux.NewRouter()

	createSession := middleware.RateLimit(config.GetSessionRateLimit())(
		http.HandlerFunc(sessionHandler.HandleCreateSession))
	r.Handle("/v1/session", createSession).Methods("POST")
	r.HandleFunc("/v1/session/{id}", sessionHandler.HandleEndSession).Methods("DELETE")

	r.HandleFunc("/v1/rooms/{room}/ws", roomHandler.HandleRoomWebSocket).Methods("GET")

	r.HandleFunc("/healthz", HandleHealth).Methods("GET")

	return r
}
