// Package protocol defines the line-delimited JSON envelope exchanged between
// peers and its mapping to operator-facing events.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProtocolVersion is the only envelope version this build understands.
const ProtocolVersion = 1

var (
	// ErrMalformed is returned for lines that are not a complete envelope.
	ErrMalformed = errors.New("failed to parse envelope")
	// ErrVersionMismatch is matched by *VersionError.
	ErrVersionMismatch = errors.New("protocol version mismatch")
	// ErrMissingRoom is matched by *MissingRoomError and returned when
	// encoding a room-scoped envelope without a room.
	ErrMissingRoom = errors.New("missing room")
	// ErrMissingBody is returned when encoding a chat envelope with no body.
	ErrMissingBody = errors.New("missing body")
	// ErrUnknownKind is returned for a "type" tag this build does not know.
	ErrUnknownKind = errors.New("unknown envelope type")
)

// Kind is the content discriminant carried in the "type" field.
type Kind int

// Envelope kinds, tagged "chat", "join", "leave" and "system" on the wire.
const (
	KindChat Kind = iota
	KindJoin
	KindLeave
	KindSystem
)

// String returns the wire tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindJoin:
		return "join"
	case KindLeave:
		return "leave"
	case KindSystem:
		return "system"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown tags are rejected.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "chat":
		*k = KindChat
	case "join":
		*k = KindJoin
	case "leave":
		*k = KindLeave
	case "system":
		*k = KindSystem
	default:
		return fmt.Errorf("%w %q", ErrUnknownKind, text)
	}
	return nil
}

func (k Kind) valid() bool {
	return k >= KindChat && k <= KindSystem
}

// requiresRoom reports whether envelopes of this kind must name a room.
func (k Kind) requiresRoom() bool {
	return k != KindSystem
}

// Envelope is one wire message. Body is used by chat envelopes and Text by
// system envelopes; join and leave carry no content.
type Envelope struct {
	Version   int
	ID        uuid.UUID
	Timestamp time.Time
	From      string
	Room      string
	Kind      Kind
	Body      string
	Text      string
}

// VersionError reports an envelope stamped with a version other than
// ProtocolVersion.
type VersionError struct {
	Got  int
	Want int
}

// Error implements error.
func (e *VersionError) Error() string {
	return fmt.Sprintf("protocol version mismatch: got v%d, expected v%d", e.Got, e.Want)
}

// Unwrap returns ErrVersionMismatch.
func (e *VersionError) Unwrap() error { return ErrVersionMismatch }

// MissingRoomError reports a chat, join or leave envelope without a room.
type MissingRoomError struct {
	Kind Kind
	From string
}

// Error names the envelope kind and its sender.
func (e *MissingRoomError) Error() string {
	switch e.Kind {
	case KindJoin:
		return fmt.Sprintf("join from %s has no room", e.From)
	case KindLeave:
		return fmt.Sprintf("leave from %s has no room", e.From)
	default:
		return fmt.Sprintf("chat message from %s has no room", e.From)
	}
}

// Unwrap returns ErrMissingRoom.
func (e *MissingRoomError) Unwrap() error { return ErrMissingRoom }

// NewEnvelope builds an envelope stamped with the current protocol version, a
// fresh identifier and the current UTC time. content is the chat body for
// KindChat and the notice text for KindSystem; it is ignored otherwise.
func NewEnvelope(kind Kind, from, room, content string) (*Envelope, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	if kind.requiresRoom() && room == "" {
		return nil, &MissingRoomError{Kind: kind, From: from}
	}

	env := &Envelope{
		Version:   ProtocolVersion,
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		From:      from,
		Room:      room,
		Kind:      kind,
	}
	switch kind {
	case KindChat:
		if content == "" {
			return nil, ErrMissingBody
		}
		env.Body = content
	case KindSystem:
		env.Text = content
	}
	return env, nil
}

// Encode builds a fresh envelope and serializes it, see NewEnvelope.
func Encode(kind Kind, from, room, content string) ([]byte, error) {
	env, err := NewEnvelope(kind, from, room, content)
	if err != nil {
		return nil, err
	}
	return env.Encode()
}

// Encode serializes the envelope as a single JSON object followed by '\n'.
func (e *Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e.toWire())
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return append(data, '\n'), nil
}

// Parse decodes one line into an envelope. Errors wrap ErrMalformed,
// ErrVersionMismatch (as *VersionError) or ErrMissingRoom (as
// *MissingRoomError). The version is checked before any content is looked at.
func Parse(line []byte) (*Envelope, error) {
	line = bytes.TrimRight(line, "\r\n")

	var probe struct {
		Version *int `json:"v"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if probe.Version == nil {
		return nil, fmt.Errorf("%w: missing field \"v\"", ErrMalformed)
	}
	if *probe.Version != ProtocolVersion {
		return nil, &VersionError{Got: *probe.Version, Want: ProtocolVersion}
	}

	var w wireEnvelope
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return w.toEnvelope()
}

// Decode turns one line into an Event. It never fails: anything that cannot
// be interpreted becomes a System event describing the problem and quoting
// the raw line as a Go string literal, so control bytes stay escaped.
func Decode(line []byte) Event {
	env, err := Parse(line)
	if err != nil {
		return diagnose(line, err)
	}
	return env.Event()
}

// Event maps the envelope to what the operator sees.
func (e *Envelope) Event() Event {
	switch e.Kind {
	case KindChat:
		return Message{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Room:      e.Room,
			From:      e.From,
			Body:      e.Body,
		}
	case KindJoin:
		return Systemf("%s joined %s", e.From, e.Room)
	case KindLeave:
		return Systemf("%s left %s", e.From, e.Room)
	default:
		return System{Text: e.Text}
	}
}

func diagnose(line []byte, err error) Event {
	raw := bytes.TrimRight(line, "\r\n")

	var versionErr *VersionError
	var roomErr *MissingRoomError
	switch {
	case errors.As(err, &versionErr):
		return Systemf("protocol version mismatch: got v%d, expected v%d (raw: %q)", versionErr.Got, versionErr.Want, raw)
	case errors.As(err, &roomErr):
		return System{Text: roomErr.Error()}
	default:
		return Systemf("%v (raw: %q)", err, raw)
	}
}
