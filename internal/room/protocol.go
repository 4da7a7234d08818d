// Package room implements the client side of the realtime room protocol:
// JSON packets over a websocket carrying data messages, participant
// attribute deltas and metadata replacements.
package room

// PacketKind discriminates the JSON envelopes exchanged with the room server.
type PacketKind string

const (
	// PacketWelcome is sent by the server right after the upgrade and
	// carries the assigned identity plus a snapshot of the other
	// participants.
	PacketWelcome PacketKind = "welcome"
	// PacketJoin announces a participant entering the room.
	PacketJoin PacketKind = "join"
	// PacketLeave announces a participant leaving the room.
	PacketLeave PacketKind = "leave"
	// PacketData carries an opaque data-channel payload.
	PacketData PacketKind = "data"
	// PacketAttributes carries a delta of changed attribute keys.
	PacketAttributes PacketKind = "attributes"
	// PacketMetadata carries a full replacement of a participant's metadata.
	PacketMetadata PacketKind = "metadata"
	// PacketMic signals the sender's microphone capture state.
	PacketMic PacketKind = "mic"
)

// Packet is the wire envelope. Identity names the originating participant
// for everything the server relays.
type Packet struct {
	Kind         PacketKind        `json:"kind"`
	Identity     string            `json:"identity,omitempty"`
	Data         []byte            `json:"data,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Metadata     string            `json:"metadata"`
	MicEnabled   *bool             `json:"micEnabled,omitempty"`
	Participants []ParticipantInfo `json:"participants,omitempty"`
}

// ParticipantInfo is the server-side snapshot of one participant, delivered
// in welcome packets so late joiners see current attributes and metadata.
type ParticipantInfo struct {
	Identity   string            `json:"identity"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Metadata   string            `json:"metadata"`
	MicEnabled bool              `json:"micEnabled"`
}
