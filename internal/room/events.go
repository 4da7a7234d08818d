package room

import "sync"

// DataHandler receives data-channel payloads. The participant may be nil
// when the sender is unknown to this client.
type DataHandler func(payload []byte, p *Participant)

// AttributesHandler receives the changed-key delta of an attribute update.
type AttributesHandler func(changed map[string]string, p *Participant)

// MetadataHandler receives the previous metadata; the current value is
// readable from the participant.
type MetadataHandler func(oldMetadata string, p *Participant)

// emitter fans room events out to registered handlers. Registration returns
// an unsubscribe func, so a subscriber torn down and re-attached across
// reconnects never ends up registered twice.
type emitter struct {
	mu       sync.Mutex
	nextID   int
	data     map[int]DataHandler
	attrs    map[int]AttributesHandler
	metadata map[int]MetadataHandler
}

func newEmitter() *emitter {
	return &emitter{
		data:     make(map[int]DataHandler),
		attrs:    make(map[int]AttributesHandler),
		metadata: make(map[int]MetadataHandler),
	}
}

func (e *emitter) onData(h DataHandler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.data[id] = h
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.data, id)
	}
}

func (e *emitter) onAttributes(h AttributesHandler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.attrs[id] = h
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.attrs, id)
	}
}

func (e *emitter) onMetadata(h MetadataHandler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.metadata[id] = h
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.metadata, id)
	}
}

func (e *emitter) emitData(payload []byte, p *Participant) {
	for _, h := range e.snapshotData() {
		h(payload, p)
	}
}

func (e *emitter) emitAttributes(changed map[string]string, p *Participant) {
	for _, h := range e.snapshotAttributes() {
		h(changed, p)
	}
}

func (e *emitter) emitMetadata(old string, p *Participant) {
	for _, h := range e.snapshotMetadata() {
		h(old, p)
	}
}

// Handlers are invoked outside the lock so they can unsubscribe themselves.

func (e *emitter) snapshotData() []DataHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	handlers := make([]DataHandler, 0, len(e.data))
	for _, h := range e.data {
		handlers = append(handlers, h)
	}
	return handlers
}

func (e *emitter) snapshotAttributes() []AttributesHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	handlers := make([]AttributesHandler, 0, len(e.attrs))
	for _, h := range e.attrs {
		handlers = append(handlers, h)
	}
	return handlers
}

func (e *emitter) snapshotMetadata() []MetadataHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	handlers := make([]MetadataHandler, 0, len(e.metadata))
	for _, h := range e.metadata {
		handlers = append(handlers, h)
	}
	return handlers
}
