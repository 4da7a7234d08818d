package room

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

// ErrClosed is returned for operations on a room whose connection is gone.
var ErrClosed = errors.New("room: connection closed")

// Room is a connected room client. All state mutation happens on the read
// loop goroutine; consumers see it through the registered event handlers.
type Room struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	local *Participant

	mu      sync.RWMutex
	remotes map[string]*Participant

	events    *emitter
	done      chan struct{}
	closeOnce sync.Once
}

// Connect dials the room server, authenticates with the access token and
// waits for the welcome packet before returning a usable room.
func Connect(ctx context.Context, rawURL, token string) (*Room, error) {
	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("room: dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("room: dial failed: %w", err)
	}

	var welcome Packet
	if err := conn.ReadJSON(&welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("room: reading welcome: %w", err)
	}
	if welcome.Kind != PacketWelcome {
		conn.Close()
		return nil, fmt.Errorf("room: expected welcome packet, got %q", welcome.Kind)
	}

	r := &Room{
		conn:    conn,
		local:   NewParticipant(welcome.Identity, true),
		remotes: make(map[string]*Participant),
		events:  newEmitter(),
		done:    make(chan struct{}),
	}

	for _, info := range welcome.Participants {
		p := NewParticipant(info.Identity, false)
		p.ApplyAttributes(info.Attributes)
		p.UpdateMetadata(info.Metadata)
		r.remotes[info.Identity] = p
	}

	go r.readLoop()
	return r, nil
}

// LocalParticipant returns this client's own participant mirror.
func (r *Room) LocalParticipant() *Participant {
	return r.local
}

// RemoteParticipants returns the currently known remote participants.
func (r *Room) RemoteParticipants() []*Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	participants := make([]*Participant, 0, len(r.remotes))
	for _, p := range r.remotes {
		participants = append(participants, p)
	}
	return participants
}

// RemoteParticipant returns a remote participant by identity, nil when unknown.
func (r *Room) RemoteParticipant(identity string) *Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.remotes[identity]
}

// Done is closed when the connection ends for any reason.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// OnDataReceived registers a data-channel handler and returns its teardown.
func (r *Room) OnDataReceived(h DataHandler) func() {
	return r.events.onData(h)
}

// OnAttributesChanged registers an attribute-delta handler and returns its teardown.
func (r *Room) OnAttributesChanged(h AttributesHandler) func() {
	return r.events.onAttributes(h)
}

// OnMetadataChanged registers a metadata handler and returns its teardown.
func (r *Room) OnMetadataChanged(h MetadataHandler) func() {
	return r.events.onMetadata(h)
}

// PublishData sends an opaque payload on the data channel.
func (r *Room) PublishData(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.writePacket(Packet{Kind: PacketData, Data: payload})
}

// SetAttributes pushes a changed-key attribute delta and mirrors it locally.
func (r *Room) SetAttributes(changed map[string]string) error {
	if err := r.writePacket(Packet{Kind: PacketAttributes, Attributes: changed}); err != nil {
		return err
	}
	r.local.ApplyAttributes(changed)
	return nil
}

// SetMetadata replaces the local participant's metadata blob.
func (r *Room) SetMetadata(metadata string) error {
	if err := r.writePacket(Packet{Kind: PacketMetadata, Metadata: metadata}); err != nil {
		return err
	}
	r.local.UpdateMetadata(metadata)
	return nil
}

// SetMicrophoneEnabled signals the local microphone capture state.
func (r *Room) SetMicrophoneEnabled(enabled bool) error {
	return r.writePacket(Packet{Kind: PacketMic, MicEnabled: &enabled})
}

// Disconnect closes the connection. Safe to call more than once.
func (r *Room) Disconnect() {
	r.closeOnce.Do(func() {
		close(r.done)
		r.writeMu.Lock()
		_ = r.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		r.writeMu.Unlock()
		r.conn.Close()
	})
}

func (r *Room) writePacket(pkt Packet) error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return r.conn.WriteJSON(pkt)
}

func (r *Room) readLoop() {
	defer r.Disconnect()

	for {
		var pkt Packet
		if err := r.conn.ReadJSON(&pkt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("identity", r.local.Identity()).Msg("Room connection dropped")
			}
			return
		}
		r.dispatch(pkt)
	}
}

func (r *Room) dispatch(pkt Packet) {
	switch pkt.Kind {
	case PacketJoin:
		r.upsertRemote(pkt.Identity)

	case PacketLeave:
		r.mu.Lock()
		delete(r.remotes, pkt.Identity)
		r.mu.Unlock()

	case PacketData:
		r.events.emitData(pkt.Data, r.participantFor(pkt.Identity))

	case PacketAttributes:
		p := r.participantFor(pkt.Identity)
		if p == nil {
			if p = r.upsertRemote(pkt.Identity); p == nil {
				return
			}
		}
		p.ApplyAttributes(pkt.Attributes)
		r.events.emitAttributes(pkt.Attributes, p)

	case PacketMetadata:
		p := r.participantFor(pkt.Identity)
		if p == nil {
			if p = r.upsertRemote(pkt.Identity); p == nil {
				return
			}
		}
		old := p.UpdateMetadata(pkt.Metadata)
		r.events.emitMetadata(old, p)

	case PacketMic:
		// Capture-state signaling has no client-side consumer.

	default:
		log.Debug().Str("kind", string(pkt.Kind)).Msg("Ignoring unknown room packet")
	}
}

// participantFor resolves a sender identity. Returns nil for packets that
// carry no identity at all.
func (r *Room) participantFor(identity string) *Participant {
	if identity == "" {
		return nil
	}
	if identity == r.local.Identity() {
		return r.local
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.remotes[identity]
}

func (r *Room) upsertRemote(identity string) *Participant {
	if identity == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.remotes[identity]; ok {
		return p
	}
	p := NewParticipant(identity, false)
	r.remotes[identity] = p
	return p
}
