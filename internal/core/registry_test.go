package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/noteroom/internal/domain"
)

// fakeConn records everything sent to it.
type fakeConn struct {
	id ConnID

	mu     sync.Mutex
	frames []Frame
	full   bool
	closed bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: ConnID(id)} }

func (c *fakeConn) ID() ConnID { return c.id }

func (c *fakeConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func sessionFor(id, userID, name string) (*Session, *fakeConn) {
	conn := newFakeConn(id)
	u := domain.User{ID: domain.UserID(userID), Name: name, Email: name + "@example.com"}
	return NewSession(conn, u), conn
}

func TestPresenceDeduplicatesByUser(t *testing.T) {
	r := NewRegistry()
	room := domain.WorkspaceRoom("w1")

	// u1 holds two connections in the room, u2 holds one.
	s1, _ := sessionFor("c1", "u1", "Alice")
	s2, _ := sessionFor("c2", "u1", "Alice")
	s3, _ := sessionFor("c3", "u2", "Bob")
	for _, s := range []*Session{s1, s2, s3} {
		r.Add(s)
		r.Join(s.ID(), room)
	}

	entries := r.Presence(room)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.UserID("u1"), entries[0].ID)
	assert.Equal(t, ConnID("c1"), entries[0].SocketID, "first-seen connection wins")
	assert.Equal(t, domain.UserID("u2"), entries[1].ID)
}

func TestJoinAndLeaveAreIdempotent(t *testing.T) {
	r := NewRegistry()
	room := domain.WorkspaceRoom("w1")
	s1, c1 := sessionFor("c1", "u1", "Alice")
	r.Add(s1)

	require.True(t, r.Join("c1", room))
	require.False(t, r.Join("c1", room), "second join is a no-op")
	require.Len(t, r.MembersOf(room), 1)

	// Double join must not cause duplicate delivery.
	r.Broadcast(room, Frame(`x`))
	assert.Equal(t, 1, c1.sent())

	r.Leave("c1", room)
	r.Leave("c1", room)
	assert.Empty(t, r.MembersOf(room))
	assert.Empty(t, r.Presence(room))

	// Leaving a room never joined is fine too.
	r.Leave("c1", domain.WorkspaceRoom("other"))
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	r := NewRegistry()
	room := domain.WorkspaceRoom("w1")
	s1, c1 := sessionFor("c1", "u1", "Alice")
	s2, c2 := sessionFor("c2", "u1", "Alice")
	s3, c3 := sessionFor("c3", "u2", "Bob")
	for _, s := range []*Session{s1, s2, s3} {
		r.Add(s)
		r.Join(s.ID(), room)
	}

	sent, dropped := r.BroadcastExcept(room, "c1", Frame(`typing`))
	assert.Equal(t, 2, sent)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, 0, c1.sent(), "sender must not receive its own typing event")
	assert.Equal(t, 1, c2.sent(), "same user's other connection does receive it")
	assert.Equal(t, 1, c3.sent())
}

func TestBroadcastCountsDropped(t *testing.T) {
	r := NewRegistry()
	room := domain.WorkspaceRoom("w1")
	s1, _ := sessionFor("c1", "u1", "Alice")
	s2, c2 := sessionFor("c2", "u2", "Bob")
	c2.full = true
	for _, s := range []*Session{s1, s2} {
		r.Add(s)
		r.Join(s.ID(), room)
	}

	sent, dropped := r.Broadcast(room, Frame(`n`))
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, dropped)
}

func TestRemoveCleansUpEverything(t *testing.T) {
	r := NewRegistry()
	roomA := domain.WorkspaceRoom("a")
	roomB := domain.WorkspaceRoom("b")

	s1, _ := sessionFor("c1", "u1", "Alice")
	s2, _ := sessionFor("c2", "u1", "Alice")
	r.Add(s1)
	r.Add(s2)
	r.Join("c1", domain.UserRoom("u1"))
	r.Join("c1", roomA)
	r.Join("c1", roomB)
	require.Equal(t, 2, r.ConnectionsOf("u1"))

	sess, wsRooms := r.Remove("c1")
	require.NotNil(t, sess)
	assert.ElementsMatch(t, []domain.RoomKey{roomA, roomB}, wsRooms,
		"personal room is not reported for presence re-broadcast")
	assert.Empty(t, r.MembersOf(roomA))
	assert.Equal(t, 1, r.ConnectionsOf("u1"))

	// Last connection gone: the user entry disappears entirely.
	_, wsRooms = r.Remove("c2")
	assert.Empty(t, wsRooms)
	assert.Equal(t, 0, r.ConnectionsOf("u1"))
	assert.Equal(t, 0, r.Len())

	// Removing an unknown connection is a no-op.
	sess, _ = r.Remove("c1")
	assert.Nil(t, sess)
}

func TestBroadcastPresenceIsAtomicSnapshot(t *testing.T) {
	r := NewRegistry()
	room := domain.WorkspaceRoom("w1")
	s1, c1 := sessionFor("c1", "u1", "Alice")
	r.Add(s1)
	r.Join("c1", room)

	var got []PresenceEntry
	err := r.BroadcastPresence(room, func(entries []PresenceEntry) (Frame, error) {
		got = entries
		return Frame(`presence`), nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, c1.sent())
}
