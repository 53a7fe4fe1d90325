package tcp

import (
	"context"
	"fmt"
	"net"
)

// Listener waits for exactly one peer.
type Listener struct {
	ln net.Listener
}

// Listen binds address. The bound address is available through Addr before
// the peer arrives, which matters when address uses port 0.
func Listen(address string) (*Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return &Listener{ln: ln}, nil
}

// Addr returns the listening address.
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

// Accept waits for one inbound connection and closes the listener, so no
// further peers are accepted. Cancelling ctx aborts the wait.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	conn, err := l.AcceptRaw(ctx)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// AcceptRaw is Accept without the line framing, for transports that run
// their own framing over the accepted connection.
func (l *Listener) AcceptRaw(ctx context.Context) (net.Conn, error) {
	defer l.ln.Close()

	stop := context.AfterFunc(ctx, func() {
		l.ln.Close()
	})
	defer stop()

	conn, err := l.ln.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to accept connection: %w", err)
	}
	return conn, nil
}

// Close releases the listener without accepting.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Accept binds address and waits for a single peer.
func Accept(ctx context.Context, address string) (*Conn, error) {
	l, err := Listen(address)
	if err != nil {
		return nil, err
	}
	return l.Accept(ctx)
}

// Dial connects to address.
func Dial(ctx context.Context, address string) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return NewConn(conn), nil
}
