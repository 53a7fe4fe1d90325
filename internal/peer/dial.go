package peer

import (
	"context"
	"errors"
	"fmt"

	"github.com/omochice/toy-peer-chat/internal/chat"
	"github.com/omochice/toy-peer-chat/internal/transport/tcp"
	"github.com/omochice/toy-peer-chat/internal/transport/ws"
)

// Transport names the framing used on the wire. Both peers must agree.
type Transport string

const (
	// TransportTCP sends one envelope per newline-terminated line.
	TransportTCP Transport = "tcp"
	// TransportWS sends one envelope per WebSocket text message.
	TransportWS Transport = "ws"
)

// ErrUnknownTransport is returned for a transport name other than tcp or ws.
var ErrUnknownTransport = errors.New("unknown transport")

// ParseTransport validates a transport name.
func ParseTransport(name string) (Transport, error) {
	switch t := Transport(name); t {
	case TransportTCP, TransportWS:
		return t, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownTransport, name)
	}
}

// Listen binds address, accepts exactly one peer and starts a session on it.
func Listen(ctx context.Context, transport Transport, address, username string, opts ...Option) (*Session, error) {
	conn, err := accept(ctx, transport, address)
	if err != nil {
		return nil, err
	}
	return New(conn, username, opts...), nil
}

// Connect dials address and starts a session on the connection.
func Connect(ctx context.Context, transport Transport, address, username string, opts ...Option) (*Session, error) {
	conn, err := dial(ctx, transport, address)
	if err != nil {
		return nil, err
	}
	return New(conn, username, opts...), nil
}

func accept(ctx context.Context, transport Transport, address string) (chat.Conn, error) {
	switch transport {
	case TransportTCP:
		conn, err := tcp.Accept(ctx, address)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case TransportWS:
		conn, err := ws.Accept(ctx, address)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownTransport, transport)
	}
}

func dial(ctx context.Context, transport Transport, address string) (chat.Conn, error) {
	switch transport {
	case TransportTCP:
		conn, err := tcp.Dial(ctx, address)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case TransportWS:
		conn, err := ws.Dial(ctx, address)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownTransport, transport)
	}
}
