package peer_test

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/omochice/toy-peer-chat/internal/chat"
)

// mockConn is a mock implementation of chat.Conn for testing.
// Frames pushed on readCh are returned by Read; closing readCh signals EOF.
type mockConn struct {
	readCh     chan []byte
	writtenMu  sync.Mutex
	written    [][]byte
	writeErr   error
	closeOnce  sync.Once
	closedCh   chan struct{}
	remoteAddr string
}

func newMockConn(addr string) *mockConn {
	return &mockConn{
		readCh:     make(chan []byte, 100),
		closedCh:   make(chan struct{}),
		remoteAddr: addr,
	}
}

func (m *mockConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closedCh:
		return nil, net.ErrClosed
	case data, ok := <-m.readCh:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	}
}

func (m *mockConn) Write(ctx context.Context, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	m.written = append(m.written, copied)
	return nil
}

func (m *mockConn) Close() error {
	m.closeOnce.Do(func() { close(m.closedCh) })
	return nil
}

func (m *mockConn) RemoteAddr() string {
	return m.remoteAddr
}

func (m *mockConn) GetWritten() [][]byte {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	return m.written
}

// Compile-time check that mockConn implements chat.Conn
var _ chat.Conn = (*mockConn)(nil)
