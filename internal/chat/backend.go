package chat

import (
	"context"

	"github.com/omochice/toy-peer-chat/pkg/protocol"
)

// Backend is a chat transport seen from the interactive loop. The loop only
// talks to this interface, so it does not know whether the other side is a
// single TCP peer or something else.
type Backend interface {
	// JoinRoom announces that the operator entered room.
	JoinRoom(ctx context.Context, room string) error

	// LeaveRoom announces that the operator left room.
	LeaveRoom(ctx context.Context, room string) error

	// SendMessage sends body to room.
	SendMessage(ctx context.Context, room, body string) error

	// PollEvents returns every event received since the last call, oldest
	// first, without waiting.
	PollEvents() []protocol.Event
}
