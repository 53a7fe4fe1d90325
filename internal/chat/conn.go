// Package chat defines the transport and backend boundaries shared by the
// peer session and the interactive loop.
package chat

import "context"

// Conn abstracts a framed duplex connection for both TCP and WebSocket.
// One frame carries exactly one envelope line.
type Conn interface {
	// Read reads a single frame without its line terminator. The frame may
	// be empty. Returns io.EOF when the peer closed the connection.
	Read(ctx context.Context) ([]byte, error)

	// Write sends a single frame and flushes it.
	Write(ctx context.Context, data []byte) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}
