// Package app coordinates the realtime side: it authorizes actions
// against the durable store, mutates it, and fans the resulting events
// out to the right connection sets.
package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/noteroom/internal/core"
	"github.com/dkeye/noteroom/internal/domain"
	"github.com/dkeye/noteroom/internal/metrics"
	"github.com/dkeye/noteroom/internal/store"
)

// Hub owns the connection lifecycle over the registry. mu serializes
// every join/leave/disconnect together with its presence re-broadcast,
// so presence is never computed from a membership snapshot that a
// concurrent change on the same room has already invalidated. Store
// calls happen outside mu; they are the only blocking points.
type Hub struct {
	mu       sync.Mutex
	registry *core.Registry
	store    store.Store
}

func NewHub(registry *core.Registry, st store.Store) *Hub {
	return &Hub{registry: registry, store: st}
}

// Connect registers an authenticated session and auto-joins its
// personal room, so direct notifications reach it from the first
// moment.
func (h *Hub) Connect(sess *core.Session) {
	u := sess.User()

	h.mu.Lock()
	h.registry.Add(sess)
	h.registry.Join(sess.ID(), domain.UserRoom(u.ID))
	h.mu.Unlock()

	h.updateGauges()
	log.Info().Str("module", "app.hub").Str("conn", string(sess.ID())).Str("user", string(u.ID)).
		Int("user_conns", h.registry.ConnectionsOf(u.ID)).Msg("connected")
}

// Disconnect removes the connection from presence and every joined
// room, then re-broadcasts presence once per workspace room it was in.
// Safe to call more than once; cleanup runs only for a live session.
func (h *Hub) Disconnect(id core.ConnID) {
	h.mu.Lock()
	sess, wsRooms := h.registry.Remove(id)
	if sess == nil {
		h.mu.Unlock()
		return
	}
	for _, room := range wsRooms {
		h.announcePresence(room)
	}
	h.mu.Unlock()

	h.updateGauges()
	log.Info().Str("module", "app.hub").Str("conn", string(id)).Str("user", string(sess.User().ID)).
		Int("rooms", len(wsRooms)).Msg("disconnected")
}

// SendToUser delivers an event to every live connection of one user,
// via their personal room. A user with no connections is a silent
// no-op: nothing is queued, nothing fails.
func (h *Hub) SendToUser(id domain.UserID, event string, payload any) {
	f, err := Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("event", event).Msg("encode failed")
		return
	}
	sent, dropped := h.registry.Broadcast(domain.UserRoom(id), f)
	h.countBroadcast(event, dropped)
	log.Debug().Str("module", "app.hub").Str("event", event).Str("user", string(id)).Int("sent", sent).Msg("direct notification")
}

// announcePresence must be called with h.mu held.
func (h *Hub) announcePresence(room domain.RoomKey) {
	wsID := room.WorkspaceID()
	err := h.registry.BroadcastPresence(room, func(entries []core.PresenceEntry) (core.Frame, error) {
		return Encode(domain.EvPresence, PresencePayload{WorkspaceID: wsID, Users: entries})
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("room", string(room)).Msg("presence encode failed")
		return
	}
	metrics.EventsBroadcast.WithLabelValues(domain.EvPresence).Inc()
}

// broadcast encodes once and fans out to the whole room.
func (h *Hub) broadcast(room domain.RoomKey, event string, payload any) {
	f, err := Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("event", event).Msg("encode failed")
		return
	}
	_, dropped := h.registry.Broadcast(room, f)
	h.countBroadcast(event, dropped)
}

func (h *Hub) countBroadcast(event string, dropped int) {
	metrics.EventsBroadcast.WithLabelValues(event).Inc()
	if dropped > 0 {
		metrics.FramesDropped.Add(float64(dropped))
	}
}

func (h *Hub) updateGauges() {
	metrics.ConnectionsActive.Set(float64(h.registry.Len()))
	metrics.RoomsActive.Set(float64(h.registry.RoomCount()))
}
