package core

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/encodeous/dvsim/protocol"
	"github.com/encodeous/dvsim/state"
	"github.com/google/uuid"
)

// Link is one framed stream connection between a node and the relay.
// Reads must come from a single goroutine; writes may come from any.
type Link struct {
	id     uuid.UUID
	Conn   net.Conn
	reader *protocol.Reader
	mutex  sync.Mutex
	once   sync.Once
}

func NewLink(conn net.Conn) *Link {
	return &Link{
		id:     uuid.New(),
		Conn:   conn,
		reader: protocol.NewReader(conn),
	}
}

func DialLink(ctx context.Context, addr string) (*Link, error) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", state.ErrConnection, addr, err)
	}
	return NewLink(conn), nil
}

func (l *Link) Id() uuid.UUID {
	return l.id
}

// OnDrop sets the hook called for frames that fail to decode
func (l *Link) OnDrop(fun func(frame []byte, err error)) {
	l.reader.OnDrop = fun
}

func (l *Link) ReadMsg() (protocol.Message, error) {
	msg, err := l.reader.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", state.ErrConnection, err)
	}
	return msg, nil
}

func (l *Link) WriteMsg(m protocol.Message) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	err := protocol.WriteMsg(l.Conn, m)
	if err != nil {
		return fmt.Errorf("%w: write: %w", state.ErrConnection, err)
	}
	return nil
}

func (l *Link) Close() {
	l.once.Do(func() {
		_ = l.Conn.Close()
	})
}

func (l *Link) String() string {
	return fmt.Sprintf("%s (%s)", l.id, l.Conn.RemoteAddr())
}
