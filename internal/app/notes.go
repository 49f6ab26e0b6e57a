package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/noteroom/internal/core"
	"github.com/dkeye/noteroom/internal/domain"
	"github.com/dkeye/noteroom/internal/store"
)

// requireMember re-validates workspace membership against the store on
// every action: a user may have been removed from a workspace since
// joining its room.
func (h *Hub) requireMember(ctx context.Context, actor domain.UserID, wsID domain.WorkspaceID) (*domain.Workspace, error) {
	ws, err := h.store.FindWorkspaceByID(ctx, wsID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("workspace lookup: %w", err)
	}
	if !ws.IsMember(actor) {
		return nil, ErrAccessDenied
	}
	return ws, nil
}

// JoinWorkspace checks membership, joins the room and broadcasts the
// refreshed presence list to everyone in it, the joiner included.
func (h *Hub) JoinWorkspace(ctx context.Context, sess *core.Session, wsID domain.WorkspaceID) error {
	if _, err := h.requireMember(ctx, sess.User().ID, wsID); err != nil {
		return err
	}

	room := domain.WorkspaceRoom(wsID)
	h.mu.Lock()
	h.registry.Join(sess.ID(), room)
	h.announcePresence(room)
	h.mu.Unlock()

	h.updateGauges()
	log.Info().Str("module", "app.hub").Str("conn", string(sess.ID())).Str("workspace", string(wsID)).Msg("joined workspace room")
	return nil
}

// LeaveWorkspace needs no store check; leaving is always allowed.
func (h *Hub) LeaveWorkspace(sess *core.Session, wsID domain.WorkspaceID) {
	room := domain.WorkspaceRoom(wsID)
	h.mu.Lock()
	h.registry.Leave(sess.ID(), room)
	h.announcePresence(room)
	h.mu.Unlock()

	h.updateGauges()
	log.Info().Str("module", "app.hub").Str("conn", string(sess.ID())).Str("workspace", string(wsID)).Msg("left workspace room")
}

// RequestPresence delivers the current list to the requester only.
func (h *Hub) RequestPresence(sess *core.Session, wsID domain.WorkspaceID) error {
	entries := h.registry.Presence(domain.WorkspaceRoom(wsID))
	f, err := Encode(domain.EvPresence, PresencePayload{WorkspaceID: wsID, Users: entries})
	if err != nil {
		return err
	}
	return sess.Send(f)
}

// CreateNote persists the note and broadcasts it to the whole room,
// the actor's own connections included, so all of the actor's tabs
// converge. It takes the actor rather than a session; the REST surface
// creates notes through the same path.
func (h *Hub) CreateNote(ctx context.Context, actor domain.UserID, wsID domain.WorkspaceID, title, content string) (*domain.Note, error) {
	if _, err := h.requireMember(ctx, actor, wsID); err != nil {
		return nil, err
	}

	note := domain.NewNote(wsID, title, content, actor)
	if err := h.store.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	h.broadcast(domain.WorkspaceRoom(wsID), domain.EvNoteCreated, NotePayload{Note: note})
	log.Info().Str("module", "app.hub").Str("note", string(note.ID)).Str("workspace", string(wsID)).Msg("note created")
	return note, nil
}

// UpdateNote merges the patch last-write-wins; no version check is
// performed.
func (h *Hub) UpdateNote(ctx context.Context, actor domain.UserID, wsID domain.WorkspaceID, noteID domain.NoteID, patch domain.NotePatch) (*domain.Note, error) {
	if _, err := h.requireMember(ctx, actor, wsID); err != nil {
		return nil, err
	}

	note, err := h.store.UpdateNote(ctx, noteID, patch, actor)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	h.broadcast(domain.WorkspaceRoom(wsID), domain.EvNoteUpdated, NotePayload{Note: note})
	return note, nil
}

func (h *Hub) DeleteNote(ctx context.Context, actor domain.UserID, wsID domain.WorkspaceID, noteID domain.NoteID) error {
	if _, err := h.requireMember(ctx, actor, wsID); err != nil {
		return err
	}

	err := h.store.DeleteNote(ctx, noteID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoteNotFound
	}
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	h.broadcast(domain.WorkspaceRoom(wsID), domain.EvNoteDeleted, NoteDeletedPayload{NoteID: noteID})
	log.Info().Str("module", "app.hub").Str("note", string(noteID)).Str("workspace", string(wsID)).Msg("note deleted")
	return nil
}

// SetTyping fans the indicator out to the room excluding the sending
// connection; the sender's other connections still receive it. Nothing
// is persisted.
func (h *Hub) SetTyping(sess *core.Session, wsID domain.WorkspaceID, noteID domain.NoteID, isTyping bool) {
	u := sess.User()
	f, err := Encode(domain.EvNoteTyping, TypingPayload{
		NoteID:   noteID,
		UserID:   u.ID,
		UserName: u.Name,
		IsTyping: isTyping,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("encode typing failed")
		return
	}
	_, dropped := h.registry.BroadcastExcept(domain.WorkspaceRoom(wsID), sess.ID(), f)
	h.countBroadcast(domain.EvNoteTyping, dropped)
}
