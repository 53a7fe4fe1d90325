package protocol

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is something worth showing the operator. It is either a Message or a
// System notice; the set of variants is closed.
type Event interface {
	isEvent()
}

// Message is a chat line received from a peer.
type Message struct {
	ID        uuid.UUID
	Timestamp time.Time
	Room      string
	From      string
	Body      string
}

// System is a free-text informational notice.
type System struct {
	Text string
}

func (Message) isEvent() {}
func (System) isEvent()  {}

// Systemf is shorthand for a System event built from a format string.
func Systemf(format string, args ...any) System {
	return System{Text: fmt.Sprintf(format, args...)}
}
