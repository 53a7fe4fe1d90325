// Package peer implements the chat backend over a single duplex connection
// to one peer.
package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/omochice/toy-peer-chat/internal/chat"
	"github.com/omochice/toy-peer-chat/pkg/protocol"
)

// DefaultQueueCapacity bounds the inbound event queue.
const DefaultQueueCapacity = 256

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("session closed")

// Session owns one established connection. A reader goroutine turns inbound
// lines into events on a bounded queue; the session itself is the only
// writer.
type Session struct {
	username string
	conn     chat.Conn
	capacity int
	logger   *slog.Logger

	events chan protocol.Event
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
	group  errgroup.Group

	// mu serializes writes so envelopes never interleave on the wire.
	mu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithQueueCapacity sets the inbound queue size. Non-positive values keep
// the default.
func WithQueueCapacity(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithLogger sets the logger used for connection diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Compile-time check that Session implements chat.Backend
var _ chat.Backend = (*Session)(nil)

// New takes ownership of conn and starts reading from it. username is the
// sender name stamped on every outbound envelope.
func New(conn chat.Conn, username string, opts ...Option) *Session {
	s := &Session{
		username: username,
		conn:     conn,
		capacity: DefaultQueueCapacity,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = make(chan protocol.Event, s.capacity)

	s.logger.Info("peer session started", "remote", conn.RemoteAddr(), "username", username)
	s.group.Go(s.readLoop)
	return s
}

// Username returns the local display name.
func (s *Session) Username() string {
	return s.username
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr()
}

// JoinRoom sends a join envelope for room.
func (s *Session) JoinRoom(ctx context.Context, room string) error {
	return s.send(ctx, protocol.KindJoin, room, "")
}

// LeaveRoom sends a leave envelope for room.
func (s *Session) LeaveRoom(ctx context.Context, room string) error {
	return s.send(ctx, protocol.KindLeave, room, "")
}

// SendMessage sends a chat envelope carrying body to room.
func (s *Session) SendMessage(ctx context.Context, room, body string) error {
	return s.send(ctx, protocol.KindChat, room, body)
}

// PollEvents drains the queue without blocking. The result is empty when
// nothing arrived since the last call.
func (s *Session) PollEvents() []protocol.Event {
	var events []protocol.Event
	for {
		select {
		case ev := <-s.events:
			events = append(events, ev)
		default:
			return events
		}
	}
}

// Close stops the reader, closes the connection and waits for the reader
// goroutine to exit. Pending events are discarded.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.done)
		err = s.conn.Close()
		_ = s.group.Wait()
	})
	return err
}

func (s *Session) send(ctx context.Context, kind protocol.Kind, room, content string) error {
	data, err := protocol.Encode(kind, s.username, room, content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.conn.Write(ctx, data); err != nil {
		s.logger.Warn("write failed", "type", kind.String(), "room", room, "error", err)
		return fmt.Errorf("failed to send %s: %w", kind, err)
	}
	return nil
}

// readLoop runs for the lifetime of the connection. It never fails; read
// errors end the loop and are reported to the operator as a notice.
func (s *Session) readLoop() error {
	if !s.push(protocol.System{Text: "connected"}) {
		return nil
	}

	for {
		line, err := s.conn.Read(context.Background())
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("peer closed the connection")
			} else {
				s.logger.Debug("read failed", "error", err)
			}
			break
		}
		if len(line) == 0 {
			continue
		}
		if !s.push(protocol.Decode(line)) {
			return nil
		}
	}

	s.push(protocol.System{Text: "connection closed"})
	return nil
}

// push blocks while the queue is full. It reports false once the session has
// been closed and nobody will drain the queue any more.
func (s *Session) push(ev protocol.Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}
