package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/noteroom/internal/domain"
)

// PresenceEntry is one online user in a room, collapsed by user id.
// SocketID is the first-seen connection of that user in the room.
type PresenceEntry struct {
	ID       domain.UserID `json:"id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	SocketID ConnID        `json:"socketId"`
}

// room keeps members in join order so presence output is stable.
type room struct {
	order   []ConnID
	members map[ConnID]*Session
}

// Registry is the single point of shared mutable state: which
// connections exist, which rooms they joined, and which connections
// each user holds. All mutation goes through its synchronized API.
type Registry struct {
	mu     sync.RWMutex
	conns  map[ConnID]*Session
	rooms  map[domain.RoomKey]*room
	users  map[domain.UserID]map[ConnID]struct{}
	joined map[ConnID]map[domain.RoomKey]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[ConnID]*Session),
		rooms:  make(map[domain.RoomKey]*room),
		users:  make(map[domain.UserID]map[ConnID]struct{}),
		joined: make(map[ConnID]map[domain.RoomKey]struct{}),
	}
}

// Add registers an authenticated session and records the connection in
// its user's socket set.
func (r *Registry) Add(sess *Session) {
	id := sess.ID()
	uid := sess.User().ID

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = sess
	if r.users[uid] == nil {
		r.users[uid] = make(map[ConnID]struct{})
	}
	r.users[uid][id] = struct{}{}
	r.joined[id] = make(map[domain.RoomKey]struct{})
	log.Debug().Str("module", "core.registry").Str("conn", string(id)).Str("user", string(uid)).Msg("session added")
}

// Remove drops the connection from every room and from its user's
// socket set, deleting the user entry when the set becomes empty.
// It returns the workspace rooms the connection belonged to, so the
// caller can re-broadcast presence for each.
func (r *Registry) Remove(id ConnID) (*Session, []domain.RoomKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.conns[id]
	if !ok {
		return nil, nil
	}
	delete(r.conns, id)

	uid := sess.User().ID
	if set, ok := r.users[uid]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.users, uid)
		}
	}

	var wsRooms []domain.RoomKey
	for key := range r.joined[id] {
		r.removeFromRoom(id, key)
		if key.IsWorkspaceRoom() {
			wsRooms = append(wsRooms, key)
		}
	}
	delete(r.joined, id)
	log.Debug().Str("module", "core.registry").Str("conn", string(id)).Str("user", string(uid)).Int("rooms", len(wsRooms)).Msg("session removed")
	return sess, wsRooms
}

// Join is an idempotent add; joining twice is joining once.
func (r *Registry) Join(id ConnID, key domain.RoomKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; !ok {
		return false
	}
	rm := r.rooms[key]
	if rm == nil {
		rm = &room{members: make(map[ConnID]*Session)}
		r.rooms[key] = rm
	}
	if _, ok := rm.members[id]; ok {
		return false
	}
	rm.members[id] = r.conns[id]
	rm.order = append(rm.order, id)
	r.joined[id][key] = struct{}{}
	log.Debug().Str("module", "core.registry").Str("conn", string(id)).Str("room", string(key)).Msg("joined room")
	return true
}

// Leave is an idempotent remove; leaving a room never joined is a no-op.
func (r *Registry) Leave(id ConnID, key domain.RoomKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeFromRoom(id, key)
	if set, ok := r.joined[id]; ok {
		delete(set, key)
	}
}

// removeFromRoom must be called with the write lock held.
func (r *Registry) removeFromRoom(id ConnID, key domain.RoomKey) {
	rm, ok := r.rooms[key]
	if !ok {
		return
	}
	if _, ok := rm.members[id]; !ok {
		return
	}
	delete(rm.members, id)
	for i, memberID := range rm.order {
		if memberID == id {
			rm.order = append(rm.order[:i], rm.order[i+1:]...)
			break
		}
	}
	if len(rm.members) == 0 {
		delete(r.rooms, key)
	}
}

func (r *Registry) MembersOf(key domain.RoomKey) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[key]
	if !ok {
		return nil
	}
	out := make([]*Session, 0, len(rm.order))
	for _, id := range rm.order {
		out = append(out, rm.members[id])
	}
	return out
}

// Presence folds the room's members into an ordered set deduplicated
// by user id: first-seen connection wins, later connections of the
// same user contribute nothing. Always derived, never stored.
func (r *Registry) Presence(key domain.RoomKey) []PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.presenceLocked(key)
}

func (r *Registry) presenceLocked(key domain.RoomKey) []PresenceEntry {
	rm, ok := r.rooms[key]
	if !ok {
		return []PresenceEntry{}
	}
	seen := make(map[domain.UserID]struct{}, len(rm.order))
	out := make([]PresenceEntry, 0, len(rm.order))
	for _, id := range rm.order {
		u := rm.members[id].User()
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, PresenceEntry{ID: u.ID, Name: u.Name, Email: u.Email, SocketID: id})
	}
	return out
}

// Broadcast delivers the frame to every current member of the room.
// Slow consumers are skipped, not waited on; the dropped count is
// reported to the caller.
func (r *Registry) Broadcast(key domain.RoomKey, f Frame) (sent, dropped int) {
	return r.BroadcastExcept(key, "", f)
}

// BroadcastExcept delivers to every member but the named connection.
func (r *Registry) BroadcastExcept(key domain.RoomKey, except ConnID, f Frame) (sent, dropped int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[key]
	if !ok {
		return 0, 0
	}
	for _, id := range rm.order {
		if id == except {
			continue
		}
		if err := rm.members[id].Send(f); err != nil {
			dropped++
			continue
		}
		sent++
	}
	if dropped > 0 {
		log.Debug().Str("module", "core.registry").Str("room", string(key)).Int("sent", sent).Int("dropped", dropped).Msg("broadcast result")
	}
	return sent, dropped
}

// BroadcastPresence computes presence and fans it out as one atomic
// unit, so the emitted list can never reflect a membership snapshot
// interleaved with a concurrent join or leave on the same room.
// encode must not call back into the registry.
func (r *Registry) BroadcastPresence(key domain.RoomKey, encode func([]PresenceEntry) (Frame, error)) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.presenceLocked(key)
	f, err := encode(entries)
	if err != nil {
		return err
	}
	rm, ok := r.rooms[key]
	if !ok {
		return nil
	}
	for _, id := range rm.order {
		_ = rm.members[id].Send(f)
	}
	return nil
}

// ConnectionsOf reports how many live connections a user holds.
func (r *Registry) ConnectionsOf(uid domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[uid])
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
