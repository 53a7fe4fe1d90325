package protocol

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// wireEnvelope is the JSON shape of an envelope. Pointer fields let decoding
// tell an absent field from a zero value; content fields are flattened next
// to the "type" tag.
type wireEnvelope struct {
	Version   *int       `json:"v"`
	ID        *string    `json:"id"`
	Timestamp *time.Time `json:"ts"`
	From      *string    `json:"from"`
	Room      *string    `json:"room,omitempty"`
	Kind      *Kind      `json:"type"`
	Body      *string    `json:"body,omitempty"`
	Text      *string    `json:"text,omitempty"`
}

// toWire converts the envelope to its JSON shape.
func (e *Envelope) toWire() *wireEnvelope {
	version := e.Version
	id := e.ID.String()
	ts := e.Timestamp.UTC()
	from := e.From
	kind := e.Kind

	w := &wireEnvelope{
		Version:   &version,
		ID:        &id,
		Timestamp: &ts,
		From:      &from,
		Kind:      &kind,
	}
	if e.Room != "" {
		room := e.Room
		w.Room = &room
	}
	switch e.Kind {
	case KindChat:
		body := e.Body
		w.Body = &body
	case KindSystem:
		text := e.Text
		w.Text = &text
	}
	return w
}

// toEnvelope validates required fields and converts the JSON shape back to an
// envelope.
func (w *wireEnvelope) toEnvelope() (*Envelope, error) {
	switch {
	case w.Version == nil:
		return nil, missingField("v")
	case w.ID == nil:
		return nil, missingField("id")
	case w.Timestamp == nil:
		return nil, missingField("ts")
	case w.From == nil:
		return nil, missingField("from")
	case w.Kind == nil:
		return nil, missingField("type")
	}

	id, err := uuid.Parse(*w.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q: %v", ErrMalformed, *w.ID, err)
	}

	env := &Envelope{
		Version:   *w.Version,
		ID:        id,
		Timestamp: w.Timestamp.UTC(),
		From:      *w.From,
		Kind:      *w.Kind,
	}
	if w.Room != nil {
		env.Room = *w.Room
	}
	if env.Kind.requiresRoom() && env.Room == "" {
		return nil, &MissingRoomError{Kind: env.Kind, From: env.From}
	}

	switch env.Kind {
	case KindChat:
		if w.Body == nil {
			return nil, missingField("body")
		}
		env.Body = *w.Body
	case KindSystem:
		if w.Text == nil {
			return nil, missingField("text")
		}
		env.Text = *w.Text
		// room is ignored for system notices
		env.Room = ""
	}
	return env, nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: missing field %q", ErrMalformed, name)
}
