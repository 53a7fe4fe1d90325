// Package ws provides the WebSocket transport. Each envelope line travels as
// one text message.
package ws

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// closeTimeout bounds how long Close waits for an in-flight write before
// giving up on the close frame.
const closeTimeout = time.Second

// Conn adapts a WebSocket connection to chat.Conn using gobwas/ws.
// Frames written by Write, by Close and by the control replies sent while
// reading are serialized, so a pong never lands inside a text frame.
type Conn struct {
	conn  net.Conn
	rw    io.ReadWriter
	state ws.State
	mu    sync.Mutex
}

// NewServerConn wraps a connection that has already been upgraded.
func NewServerConn(conn net.Conn) *Conn {
	return &Conn{conn: conn, rw: conn, state: ws.StateServerSide}
}

// NewClientConn wraps a dialed connection. br holds bytes the handshake read
// past the response and may be nil.
func NewClientConn(conn net.Conn, br *bufio.Reader) *Conn {
	var rw io.ReadWriter = conn
	if br != nil {
		rw = struct {
			io.Reader
			io.Writer
		}{br, conn}
	}
	return &Conn{conn: conn, rw: rw, state: ws.StateClientSide}
}

// Read implements chat.Conn.
// Pings are answered and other control frames handled in place; a close
// frame is reported as io.EOF.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	rd := wsutil.Reader{
		Source:         c.rw,
		State:          c.state,
		CheckUTF8:      true,
		OnIntermediate: c.handleControl,
	}
	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return nil, err
		}
		if hdr.OpCode.IsControl() {
			if err := c.handleControl(hdr, &rd); err != nil {
				var closed wsutil.ClosedError
				if errors.As(err, &closed) {
					return nil, io.EOF
				}
				return nil, err
			}
			continue
		}
		if hdr.OpCode&(ws.OpText|ws.OpBinary) == 0 {
			if err := rd.Discard(); err != nil {
				return nil, err
			}
			continue
		}

		data, err := io.ReadAll(&rd)
		if err != nil {
			return nil, err
		}
		return bytes.TrimRight(data, "\r\n"), nil
	}
}

// handleControl replies to a control frame while holding the write lock.
func (c *Conn) handleControl(hdr ws.Header, r io.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.ControlFrameHandler(c.conn, c.state)(hdr, r)
}

// Write implements chat.Conn.
// The line terminator is dropped; message boundaries do the framing.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.WriteMessage(c.conn, c.state, ws.OpText, bytes.TrimRight(data, "\r\n"))
}

// Close implements chat.Conn.
// A write stuck on a peer that stopped reading is cut off by the deadline.
func (c *Conn) Close() error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(closeTimeout))

	c.mu.Lock()
	_ = wsutil.WriteMessage(c.conn, c.state, ws.OpClose, nil)
	c.mu.Unlock()

	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
