// Package console drives the operator-facing chat loop.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/omochice/toy-peer-chat/internal/chat"
	"github.com/omochice/toy-peer-chat/pkg/protocol"
)

const (
	// DefaultRoom is the room the operator is in until they join another.
	DefaultRoom = "default"

	// DefaultPollInterval is the pause between two loop iterations.
	DefaultPollInterval = 50 * time.Millisecond

	inputCapacity = 64

	// MaxLineSize bounds one operator line; longer input ends the loop with
	// a notice.
	MaxLineSize = 1 << 20
)

// ErrDisconnected is returned by Run when a write to the peer fails.
var ErrDisconnected = errors.New("disconnected from peer")

// Loop reads operator commands and chat lines, forwards them to the backend
// and renders whatever the backend received in the meantime. Room state is
// only touched by the goroutine calling Run.
type Loop struct {
	backend     chat.Backend
	in          io.Reader
	renderer    *Renderer
	defaultRoom string
	room        string
	interval    time.Duration
	logger      *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithInput sets where operator lines are read from. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(l *Loop) { l.in = r }
}

// WithOutput sets where events are rendered. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(l *Loop) { l.renderer = NewRenderer(w) }
}

// WithDefaultRoom overrides DefaultRoom.
func WithDefaultRoom(room string) Option {
	return func(l *Loop) {
		if room != "" {
			l.defaultRoom = room
		}
	}
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithLogger sets the logger for loop diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Loop over backend. The loop starts in the default room.
func New(backend chat.Backend, opts ...Option) *Loop {
	l := &Loop{
		backend:     backend,
		in:          os.Stdin,
		renderer:    NewRenderer(os.Stdout),
		defaultRoom: DefaultRoom,
		interval:    DefaultPollInterval,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.room = l.defaultRoom
	return l
}

// Room returns the current room.
func (l *Loop) Room() string {
	return l.room
}

// Run blocks until the operator quits, input ends, a write fails or ctx is
// cancelled. A failed write is reported as ErrDisconnected.
func (l *Loop) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	in := &input{lines: make(chan string, inputCapacity)}
	go l.readInput(in, done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		stop, err := l.drainInput(ctx, in)
		if stop || err != nil {
			return err
		}

		for _, ev := range l.backend.PollEvents() {
			l.renderer.Render(ev)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// input carries operator lines from the reader goroutine. err is set before
// lines is closed.
type input struct {
	lines chan string
	err   error
}

// readInput feeds operator lines into in and closes in.lines at end of
// input. It gives up as soon as done is closed.
func (l *Loop) readInput(in *input, done <-chan struct{}) {
	defer close(in.lines)

	scanner := bufio.NewScanner(l.in)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for scanner.Scan() {
		select {
		case in.lines <- scanner.Text():
		case <-done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		l.logger.Debug("input read failed", "error", err)
		in.err = err
	}
}

// drainInput handles every line already buffered, each to completion,
// without waiting for more.
func (l *Loop) drainInput(ctx context.Context, in *input) (bool, error) {
	for {
		select {
		case line, ok := <-in.lines:
			if !ok {
				if in.err != nil {
					l.notice("input read failed: %v", in.err)
				} else {
					l.notice("input closed")
				}
				return true, nil
			}
			done, err := l.handle(ctx, line)
			if done || err != nil {
				return true, err
			}
		default:
			return false, nil
		}
	}
}

// handle classifies one operator line and acts on it. It reports true when
// the loop should stop.
func (l *Loop) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	command, arg, _ := strings.Cut(line, " ")
	switch command {
	case "/quit":
		l.notice("bye")
		return true, nil
	case "/join":
		return false, l.join(ctx, strings.TrimSpace(arg))
	case "/leave":
		return false, l.leave(ctx)
	}

	if err := l.backend.SendMessage(ctx, l.room, line); err != nil {
		return true, l.disconnected(err)
	}
	return false, nil
}

func (l *Loop) join(ctx context.Context, room string) error {
	if room == "" {
		l.notice("usage: /join <room>")
		return nil
	}
	if room == l.room {
		l.notice("already in %s", room)
		return nil
	}

	if l.room != l.defaultRoom {
		if err := l.backend.LeaveRoom(ctx, l.room); err != nil {
			return l.disconnected(err)
		}
	}
	l.room = room
	if err := l.backend.JoinRoom(ctx, room); err != nil {
		return l.disconnected(err)
	}
	l.notice("joined %s", room)
	return nil
}

func (l *Loop) leave(ctx context.Context) error {
	if l.room == l.defaultRoom {
		l.notice("already in the default room %s", l.defaultRoom)
		return nil
	}

	left := l.room
	if err := l.backend.LeaveRoom(ctx, left); err != nil {
		return l.disconnected(err)
	}
	l.room = l.defaultRoom
	if err := l.backend.JoinRoom(ctx, l.defaultRoom); err != nil {
		return l.disconnected(err)
	}
	l.notice("left %s, back in %s", left, l.defaultRoom)
	return nil
}

func (l *Loop) disconnected(err error) error {
	l.logger.Warn("peer write failed", "room", l.room, "error", err)
	l.notice("disconnected: %v", err)
	return fmt.Errorf("%w: %w", ErrDisconnected, err)
}

func (l *Loop) notice(format string, args ...any) {
	l.renderer.Render(protocol.Systemf(format, args...))
}
