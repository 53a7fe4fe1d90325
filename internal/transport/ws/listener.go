package ws

import (
	"context"
	"fmt"

	"github.com/gobwas/ws"

	"github.com/omochice/toy-peer-chat/internal/transport/tcp"
)

// Listener waits for exactly one WebSocket peer.
type Listener struct {
	inner *tcp.Listener
}

// Listen binds address.
func Listen(address string) (*Listener, error) {
	inner, err := tcp.Listen(address)
	if err != nil {
		return nil, err
	}
	return &Listener{inner: inner}, nil
}

// Addr returns the listening address.
func (l *Listener) Addr() string {
	return l.inner.Addr()
}

// Accept waits for one connection, closes the listener and performs the
// WebSocket upgrade on it.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	conn, err := l.inner.AcceptRaw(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := ws.Upgrade(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}
	return NewServerConn(conn), nil
}

// Close releases the listener without accepting.
func (l *Listener) Close() error {
	return l.inner.Close()
}

// Accept binds address and waits for a single WebSocket peer.
func Accept(ctx context.Context, address string) (*Conn, error) {
	l, err := Listen(address)
	if err != nil {
		return nil, err
	}
	return l.Accept(ctx)
}

// Dial opens a WebSocket connection to ws://address/.
func Dial(ctx context.Context, address string) (*Conn, error) {
	conn, br, _, err := ws.Dial(ctx, "ws://"+address+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return NewClientConn(conn, br), nil
}
