// Package kiosk is the consumer side of an ordering session: it joins the
// room, mirrors the agent's order updates, keeps the chat transcript and
// exposes the view data a front end renders from.
package kiosk

import (
	"context"
	"fmt"

	"github.com/moonbeamcafe/barista/internal/order"
	"github.com/moonbeamcafe/barista/internal/ordersync"
	"github.com/moonbeamcafe/barista/internal/room"
	"github.com/moonbeamcafe/barista/internal/transcript"
	"github.com/rs/zerolog/log"
)

// Receipt is the render-ready view of the order: absent fields carry the
// placeholder, Ready flips only on an agent-confirmed final order.
type Receipt struct {
	DrinkType string   `json:"drinkType"`
	Size      string   `json:"size"`
	Milk      string   `json:"milk"`
	Extras    []string `json:"extras"`
	Name      string   `json:"name"`
	Complete  bool     `json:"complete"`
	Ready     bool     `json:"ready"`
}

// Session is one active ordering session.
type Session struct {
	room       *room.Room
	store      *ordersync.Store
	transcript *transcript.Transcript
	detach     []func()
}

// Start connects to the room and wires the synchronizer and transcript.
// The microphone is enabled best-effort; voice capture itself lives in the
// transport, this only signals intent.
func Start(ctx context.Context, wsURL, token string) (*Session, error) {
	r, err := room.Connect(ctx, wsURL, token)
	if err != nil {
		return nil, fmt.Errorf("kiosk: starting session: %w", err)
	}

	store := ordersync.NewStore()
	chat := transcript.New()

	s := &Session{
		room:       r,
		store:      store,
		transcript: chat,
		detach: []func(){
			ordersync.New(store).Attach(r),
			chat.Attach(r),
		},
	}

	if err := r.SetMicrophoneEnabled(true); err != nil {
		log.Warn().Err(err).Msg("Failed to enable microphone")
	}

	return s, nil
}

// SendMessage publishes the user's typed text and appends it to the
// transcript immediately.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	return s.transcript.Send(ctx, text)
}

// Order returns the current order mirror.
func (s *Session) Order() order.State {
	return s.store.State()
}

// Messages returns the chat transcript in arrival order.
func (s *Session) Messages() []transcript.Message {
	return s.transcript.Messages()
}

// Receipt derives the view data from the current state. Ready is gated on
// the final-order snapshot, not re-derived from field completeness.
func (s *Session) Receipt() Receipt {
	state := s.store.State()
	_, ready := s.store.Final()

	return Receipt{
		DrinkType: order.Display(state.DrinkType),
		Size:      order.Display(state.Size),
		Milk:      order.Display(state.Milk),
		Extras:    state.Extras,
		Name:      order.Display(state.Name),
		Complete:  state.IsComplete(),
		Ready:     ready,
	}
}

// End tears the session down: microphone off best-effort, listeners
// detached, connection closed, local state reset.
func (s *Session) End() {
	if err := s.room.SetMicrophoneEnabled(false); err != nil {
		// Best-effort cleanup; never blocks teardown.
		log.Debug().Err(err).Msg("Failed to disable microphone on session end")
	}

	for _, off := range s.detach {
		off()
	}
	s.room.Disconnect()

	s.store.Reset()
	s.transcript.Clear()
}
