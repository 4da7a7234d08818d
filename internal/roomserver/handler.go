package roomserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/moonbeamcafe/barista/internal/services/session"
	"github.com/moonbeamcafe/barista/pkg/httpext"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Demo surface; restrict origins before any real deployment.
		return true
	},
}

// Handler authenticates websocket upgrades and hands the connections to
// the hub.
type Handler struct {
	hub      *Hub
	sessions *session.Service
}

func NewHandler(hub *Hub, sessions *session.Service) *Handler {
	return &Handler{hub: hub, sessions: sessions}
}

// HandleRoomWebSocket upgrades GET /v1/rooms/{room}/ws. The room token is
// read from the Authorization header or, for browser websocket clients
// that cannot set headers, the token query parameter.
func (h *Handler) HandleRoomWebSocket(w http.ResponseWriter, r *http.Request) {
	roomName := mux.Vars(r)["room"]

	token := bearerToken(r)
	if token == "" {
		httpext.JsonError(w, "missing room token", http.StatusUnauthorized)
		return
	}

	claims, err := h.sessions.VerifyRoomToken(token)
	if err != nil {
		httpext.JsonError(w, "invalid room token", http.StatusUnauthorized)
		return
	}
	if claims.Room != roomName {
		httpext.JsonError(w, "token not valid for this room", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	member := h.hub.Join(roomName, claims.Identity, conn)
	defer h.hub.Leave(roomName, member)

	h.hub.Serve(roomName, member)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
