package room

import "sync"

// Participant mirrors one room member as seen by this client. The local
// participant is flagged so event consumers can drop self-echoes.
type Participant struct {
	mu         sync.RWMutex
	identity   string
	local      bool
	attributes map[string]string
	metadata   string
}

// NewParticipant creates a participant mirror with empty attributes.
func NewParticipant(identity string, local bool) *Participant {
	return &Participant{
		identity:   identity,
		local:      local,
		attributes: make(map[string]string),
	}
}

// Identity returns the participant's identity string.
func (p *Participant) Identity() string {
	return p.identity
}

// IsLocal reports whether this is the client's own participant.
func (p *Participant) IsLocal() bool {
	return p.local
}

// Metadata returns the current metadata blob.
func (p *Participant) Metadata() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.metadata
}

// Attribute returns a single attribute value.
func (p *Participant) Attribute(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.attributes[key]
}

// Attributes returns a copy of the attribute map.
func (p *Participant) Attributes() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	attrs := make(map[string]string, len(p.attributes))
	for k, v := range p.attributes {
		attrs[k] = v
	}
	return attrs
}

// ApplyAttributes merges a changed-key delta into the attribute map.
func (p *Participant) ApplyAttributes(changed map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range changed {
		p.attributes[k] = v
	}
}

// UpdateMetadata replaces the metadata blob and returns the previous value.
func (p *Participant) UpdateMetadata(metadata string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.metadata
	p.metadata = metadata
	return old
}
