// Package transcript maintains the ordered chat log of a session: inbound
// data-channel payloads plus the user's own messages, appended
// optimistically at send time.
package transcript

import (
	"context"
	"strings"
	"sync"

	"github.com/moonbeamcafe/barista/internal/room"
	"github.com/rs/zerolog/log"
)

// Sender labels who a message came from.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one transcript entry. IDs are a process-local monotonic
// counter; entries are never mutated after insertion.
type Message struct {
	ID     uint64 `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// DataPublisher publishes raw bytes on the room's data channel.
// *room.Room satisfies it.
type DataPublisher interface {
	PublishData(ctx context.Context, payload []byte) error
}

// Transcript is the append-only chat log.
type Transcript struct {
	mu        sync.Mutex
	nextID    uint64
	messages  []Message
	publisher DataPublisher
}

func New() *Transcript {
	return &Transcript{}
}

// Attach wires the transcript to an active room: inbound data payloads are
// appended and outbound sends go through the room. The returned teardown
// unregisters the handler and detaches the publisher.
func (t *Transcript) Attach(r *room.Room) func() {
	t.mu.Lock()
	t.publisher = r
	t.mu.Unlock()

	off := r.OnDataReceived(t.HandleData)
	return func() {
		off()
		t.mu.Lock()
		t.publisher = nil
		t.mu.Unlock()
	}
}

// HandleData appends an inbound data payload. A sender whose identity
// contains "agent", or no sender at all, is labeled ai; everything else is
// a user message.
func (t *Transcript) HandleData(payload []byte, p *room.Participant) {
	t.append(classify(p), string(payload))
}

// Send publishes the user's text on the data channel and appends it
// locally right away, without waiting for any remote echo. With no active
// room the send is a no-op.
func (t *Transcript) Send(ctx context.Context, text string) error {
	t.mu.Lock()
	publisher := t.publisher
	t.mu.Unlock()

	if publisher == nil {
		log.Debug().Msg("Dropping outbound chat message - no active room")
		return nil
	}

	if err := publisher.PublishData(ctx, []byte(text)); err != nil {
		return err
	}

	t.append(SenderUser, text)
	return nil
}

// Messages returns a copy of the transcript in arrival order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	messages := make([]Message, len(t.messages))
	copy(messages, t.messages)
	return messages
}

// Clear empties the transcript, for session end.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

func (t *Transcript) append(sender Sender, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	t.messages = append(t.messages, Message{
		ID:     t.nextID,
		Sender: sender,
		Text:   text,
	})
}

func classify(p *room.Participant) Sender {
	if p == nil || strings.Contains(p.Identity(), "agent") {
		return SenderAI
	}
	return SenderUser
}
