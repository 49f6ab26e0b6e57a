// Package core holds the in-memory realtime state: live connections,
// room membership and presence. It never touches the durable store or
// the transport; adapters own both.
package core

import (
	"errors"

	"github.com/dkeye/noteroom/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Frame is one encoded event ready for the wire.
type Frame []byte

type ConnID string

// Conn is a transport endpoint. TrySend must not block; a full send
// buffer returns ErrBackpressure. Owned by the adapter; the adapter
// must Close() it.
type Conn interface {
	ID() ConnID
	TrySend(Frame) error
	Close()
}

// Session binds a verified identity to its transport endpoint. The
// identity is fixed at handshake time and never mutated after.
type Session struct {
	conn Conn
	user domain.User
}

func NewSession(conn Conn, user domain.User) *Session {
	return &Session{conn: conn, user: user}
}

func (s *Session) ID() ConnID        { return s.conn.ID() }
func (s *Session) User() domain.User { return s.user }

func (s *Session) Send(f Frame) error { return s.conn.TrySend(f) }
