// Package ordersync keeps a local mirror of the in-progress coffee order
// consistent with the partial and final updates the barista agent pushes
// over the room.
//
// Updates arrive on two independent channels with no ordering guarantee
// between them: participant attribute deltas and participant metadata
// replacements. Whichever event arrives last wins for the fields it
// touches; there are no sequence numbers and no staleness checks.
package ordersync

import (
	"encoding/json"
	"sync"

	"github.com/moonbeamcafe/barista/internal/order"
	"github.com/moonbeamcafe/barista/internal/room"
	"github.com/rs/zerolog/log"
)

// Attribute keys recognized on the attribute channel.
const (
	AttrOrderUpdate = "order_update"
	AttrOrderFinal  = "order_final"
)

// metadataBody is the shape of a participant metadata blob. partial
// replaces the whole order, final confirms it.
type metadataBody struct {
	Partial *order.State `json:"partial"`
	Final   *order.State `json:"final"`
}

// Store holds the current order and the agent-confirmed final snapshot
// behind explicit transition functions, so the merge/replace asymmetry of
// the two channels is testable without any transport.
type Store struct {
	mu    sync.RWMutex
	state order.State
	final *order.State
}

func NewStore() *Store {
	return &Store{state: order.Empty()}
}

// State returns a copy of the current order.
func (s *Store) State() order.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Final returns the confirmed final order, if the agent has signaled one.
func (s *Store) Final() (order.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.final == nil {
		return order.State{}, false
	}
	return s.final.Clone(), true
}

// IsComplete reports whether every required field of the current order is
// filled. Presence of a final snapshot is tracked separately and should
// gate any "ready for pickup" display instead of this predicate.
func (s *Store) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsComplete()
}

// ApplyPartial shallow-merges a delta into the current order.
func (s *Store) ApplyPartial(p order.Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Apply(p)
}

// Replace swaps the whole current order, used by the metadata channel
// whose partial payloads are full replacements rather than merges.
func (s *Store) Replace(st order.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st.Normalized()
}

// ApplyFinal records the confirmed order and makes it the current order,
// superseding any in-flight partial state.
func (s *Store) ApplyFinal(st order.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	normalized := st.Normalized()
	s.state = normalized
	final := normalized.Clone()
	s.final = &final
}

// Reset returns the store to the initial empty value, for session end.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = order.Empty()
	s.final = nil
}

// Synchronizer feeds room events into a Store. Self-originated events are
// dropped and malformed payloads are logged and swallowed; a single bad
// payload never disturbs the fields it did not touch.
type Synchronizer struct {
	store *Store
}

func New(store *Store) *Synchronizer {
	return &Synchronizer{store: store}
}

func (s *Synchronizer) Store() *Store {
	return s.store
}

// Attach subscribes to the room's attribute and metadata events and
// returns a single teardown covering both registrations.
func (s *Synchronizer) Attach(r *room.Room) func() {
	offAttrs := r.OnAttributesChanged(s.HandleAttributes)
	offMetadata := r.OnMetadataChanged(s.HandleMetadata)

	return func() {
		offAttrs()
		offMetadata()
	}
}

// HandleAttributes processes one attribute-change event.
func (s *Synchronizer) HandleAttributes(changed map[string]string, p *room.Participant) {
	if p == nil || p.IsLocal() {
		return
	}

	if raw, ok := changed[AttrOrderUpdate]; ok {
		var partial order.Partial
		if err := json.Unmarshal([]byte(raw), &partial); err != nil {
			log.Warn().Err(err).Str("identity", p.Identity()).Msg("Dropping malformed order_update payload")
		} else {
			s.store.ApplyPartial(partial)
		}
	}

	if raw, ok := changed[AttrOrderFinal]; ok {
		var final order.State
		if err := json.Unmarshal([]byte(raw), &final); err != nil {
			log.Warn().Err(err).Str("identity", p.Identity()).Msg("Dropping malformed order_final payload")
		} else {
			s.store.ApplyFinal(final)
		}
	}
}

// HandleMetadata processes one metadata-change event. Only a non-empty
// metadata blob is interpreted.
func (s *Synchronizer) HandleMetadata(_ string, p *room.Participant) {
	if p == nil || p.IsLocal() {
		return
	}

	metadata := p.Metadata()
	if metadata == "" {
		return
	}

	var body metadataBody
	if err := json.Unmarshal([]byte(metadata), &body); err != nil {
		log.Warn().Err(err).Str("identity", p.Identity()).Msg("Dropping malformed metadata payload")
		return
	}

	if body.Partial != nil {
		s.store.Replace(*body.Partial)
	}
	if body.Final != nil {
		s.store.ApplyFinal(*body.Final)
	}
}
