// Package roomserver hosts the realtime rooms: it accepts authenticated
// websocket participants, tracks their attributes and metadata, and relays
// every packet to the other members of the same room.
package roomserver

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/moonbeamcafe/barista/internal/room"
	"github.com/rs/zerolog/log"
)

// TimeoutConfig holds the timeout settings for participant connections.
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts provides sensible default timeout values.
var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

// Hub owns every active room.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]*roomState
	timeouts TimeoutConfig
}

type roomState struct {
	name string

	mu      sync.RWMutex
	members map[string]*Member
}

// Member is one connected participant from the server's point of view.
type Member struct {
	identity string
	conn     *websocket.Conn
	writeMu  sync.Mutex

	mu         sync.RWMutex
	attributes map[string]string
	metadata   string
	micEnabled bool
}

func NewHub(timeouts TimeoutConfig) *Hub {
	return &Hub{
		rooms:    make(map[string]*roomState),
		timeouts: timeouts,
	}
}

// RoomCount returns the number of active rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ParticipantCount returns the number of members in a room.
func (h *Hub) ParticipantCount(roomName string) int {
	h.mu.RLock()
	rs, ok := h.rooms[roomName]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.members)
}

// Join registers a connection as a room member, sends it the welcome
// snapshot and announces it to the others. A second join with the same
// identity replaces the first.
func (h *Hub) Join(roomName, identity string, conn *websocket.Conn) *Member {
	h.mu.Lock()
	rs, ok := h.rooms[roomName]
	if !ok {
		rs = &roomState{name: roomName, members: make(map[string]*Member)}
		h.rooms[roomName] = rs
	}
	h.mu.Unlock()

	m := &Member{
		identity:   identity,
		conn:       conn,
		attributes: make(map[string]string),
	}

	rs.mu.Lock()
	if old, exists := rs.members[identity]; exists {
		old.conn.Close()
	}
	rs.members[identity] = m
	others := rs.snapshotExcept(identity)
	rs.mu.Unlock()

	m.send(room.Packet{
		Kind:         room.PacketWelcome,
		Identity:     identity,
		Participants: others,
	}, h.timeouts.WriteWait)

	rs.broadcastExcept(identity, room.Packet{Kind: room.PacketJoin, Identity: identity}, h.timeouts.WriteWait)

	log.Info().Str("room", roomName).Str("identity", identity).Msg("Participant joined")
	return m
}

// Leave removes a member and announces the departure. Empty rooms are
// dropped from the hub.
func (h *Hub) Leave(roomName string, m *Member) {
	h.mu.Lock()
	rs, ok := h.rooms[roomName]
	h.mu.Unlock()
	if !ok {
		return
	}

	rs.mu.Lock()
	// Guard against removing a replacement that took over the identity.
	if current, exists := rs.members[m.identity]; exists && current == m {
		delete(rs.members, m.identity)
	}
	empty := len(rs.members) == 0
	rs.mu.Unlock()

	if empty {
		h.mu.Lock()
		if current, exists := h.rooms[roomName]; exists && current == rs {
			delete(h.rooms, roomName)
		}
		h.mu.Unlock()
	} else {
		rs.broadcastExcept(m.identity, room.Packet{Kind: room.PacketLeave, Identity: m.identity}, h.timeouts.WriteWait)
	}

	log.Info().Str("room", roomName).Str("identity", m.identity).Msg("Participant left")
}

// Serve runs the member's read loop until the connection ends, relaying
// each packet to the rest of the room. Blocks; call Leave afterwards.
func (h *Hub) Serve(roomName string, m *Member) {
	h.mu.RLock()
	rs, ok := h.rooms[roomName]
	h.mu.RUnlock()
	if !ok {
		return
	}

	m.conn.SetReadDeadline(time.Now().Add(h.timeouts.PongWait))
	m.conn.SetPongHandler(func(string) error {
		return m.conn.SetReadDeadline(time.Now().Add(h.timeouts.PongWait))
	})

	stopPings := make(chan struct{})
	defer close(stopPings)
	go h.pingLoop(m, stopPings)

	for {
		var pkt room.Packet
		if err := m.conn.ReadJSON(&pkt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("identity", m.identity).Msg("Participant connection dropped")
			}
			return
		}

		// The server stamps the sender; clients cannot spoof identities.
		pkt.Identity = m.identity

		switch pkt.Kind {
		case room.PacketData:
			rs.broadcastExcept(m.identity, pkt, h.timeouts.WriteWait)

		case room.PacketAttributes:
			m.applyAttributes(pkt.Attributes)
			rs.broadcastExcept(m.identity, pkt, h.timeouts.WriteWait)

		case room.PacketMetadata:
			m.setMetadata(pkt.Metadata)
			rs.broadcastExcept(m.identity, pkt, h.timeouts.WriteWait)

		case room.PacketMic:
			if pkt.MicEnabled != nil {
				m.setMicEnabled(*pkt.MicEnabled)
			}
			rs.broadcastExcept(m.identity, pkt, h.timeouts.WriteWait)

		default:
			log.Debug().Str("kind", string(pkt.Kind)).Str("identity", m.identity).Msg("Ignoring client packet")
		}
	}
}

func (h *Hub) pingLoop(m *Member, stop <-chan struct{}) {
	ticker := time.NewTicker(h.timeouts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.writeMu.Lock()
			err := m.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.timeouts.WriteWait))
			m.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (rs *roomState) broadcastExcept(senderIdentity string, pkt room.Packet, writeWait time.Duration) {
	rs.mu.RLock()
	targets := make([]*Member, 0, len(rs.members))
	for identity, m := range rs.members {
		if identity != senderIdentity {
			targets = append(targets, m)
		}
	}
	rs.mu.RUnlock()

	for _, m := range targets {
		m.send(pkt, writeWait)
	}
}

// snapshotExcept captures the current state of every member other than the
// given identity. Caller holds rs.mu.
func (rs *roomState) snapshotExcept(identity string) []room.ParticipantInfo {
	others := make([]room.ParticipantInfo, 0, len(rs.members))
	for id, m := range rs.members {
		if id == identity {
			continue
		}
		others = append(others, m.info())
	}
	return others
}

func (m *Member) send(pkt room.Packet, writeWait time.Duration) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}
	if err := m.conn.WriteJSON(pkt); err != nil {
		log.Debug().Err(err).Str("identity", m.identity).Msg("Dropping packet to unreachable participant")
	}
}

func (m *Member) applyAttributes(changed map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range changed {
		m.attributes[k] = v
	}
}

func (m *Member) setMetadata(metadata string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata = metadata
}

func (m *Member) setMicEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.micEnabled = enabled
}

func (m *Member) info() room.ParticipantInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attrs := make(map[string]string, len(m.attributes))
	for k, v := range m.attributes {
		attrs[k] = v
	}
	return room.ParticipantInfo{
		Identity:   m.identity,
		Attributes: attrs,
		Metadata:   m.metadata,
		MicEnabled: m.micEnabled,
	}
}
