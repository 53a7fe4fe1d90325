// Package tcp provides the newline-framed TCP transport.
package tcp

import (
	"bufio"
	"bytes"
	"context"
	"net"
)

// Conn adapts net.Conn to chat.Conn. Frames are newline-terminated lines.
type Conn struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
}

// Read implements chat.Conn.
// Returns the next line with any trailing "\r\n" removed. A final line that
// is not newline-terminated is still delivered before io.EOF.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	line, err := c.r.ReadBytes('\n')
	if len(line) > 0 {
		return bytes.TrimRight(line, "\r\n"), nil
	}
	return nil, err
}

// Write implements chat.Conn.
// The frame is terminated with '\n' if it is not already, then flushed.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	if _, err := c.w.Write(data); err != nil {
		return err
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		if err := c.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return c.w.Flush()
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
