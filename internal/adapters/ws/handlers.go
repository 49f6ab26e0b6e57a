package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/noteroom/internal/core"
	"github.com/dkeye/noteroom/internal/domain"
)

// handlerFunc processes one inbound event; a returned error is
// delivered to the issuing connection only, never broadcast.
type handlerFunc func(ctx context.Context, sess *core.Session, data json.RawMessage) error

// inbound is the wire envelope a client sends.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (ctl *Controller) dispatchTable() map[string]handlerFunc {
	return map[string]handlerFunc{
		domain.EvUserOnline:      ctl.onUserOnline,
		domain.EvWorkspaceJoin:   ctl.onWorkspaceJoin,
		domain.EvWorkspaceLeave:  ctl.onWorkspaceLeave,
		domain.EvNoteCreate:      ctl.onNoteCreate,
		domain.EvNoteUpdate:      ctl.onNoteUpdate,
		domain.EvNoteDelete:      ctl.onNoteDelete,
		domain.EvNoteTyping:      ctl.onNoteTyping,
		domain.EvPresenceRequest: ctl.onPresenceRequest,
	}
}

func (ctl *Controller) dispatch(ctx context.Context, sess *core.Session, data []byte) {
	var env inbound
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Str("conn", string(sess.ID())).Msg("bad json frame")
		return
	}
	h, ok := ctl.handlers[env.Event]
	if !ok {
		log.Warn().Str("module", "adapters.ws").Str("event", env.Event).Msg("unknown event")
		return
	}
	if err := h(ctx, sess, env.Data); err != nil {
		ctl.sendError(sess, err)
	}
}

func (ctl *Controller) onUserOnline(_ context.Context, sess *core.Session, _ json.RawMessage) error {
	log.Info().Str("module", "adapters.ws").Str("user", string(sess.User().ID)).Msg("user online")
	return nil
}

func (ctl *Controller) onWorkspaceJoin(ctx context.Context, sess *core.Session, data json.RawMessage) error {
	var p struct {
		WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return ctl.hub.JoinWorkspace(ctx, sess, p.WorkspaceID)
}

func (ctl *Controller) onWorkspaceLeave(_ context.Context, sess *core.Session, data json.RawMessage) error {
	var p struct {
		WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	ctl.hub.LeaveWorkspace(sess, p.WorkspaceID)
	return nil
}

func (ctl *Controller) onNoteCreate(ctx context.Context, sess *core.Session, data json.RawMessage) error {
	var p struct {
		WorkspaceID domain.WorkspaceID `json:"workspaceId"`
		Note        struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"note"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	_, err := ctl.hub.CreateNote(ctx, sess.User().ID, p.WorkspaceID, p.Note.Title, p.Note.Content)
	return err
}

func (ctl *Controller) onNoteUpdate(ctx context.Context, sess *core.Session, data json.RawMessage) error {
	var p struct {
		WorkspaceID domain.WorkspaceID `json:"workspaceId"`
		NoteID      domain.NoteID      `json:"noteId"`
		Updates     domain.NotePatch   `json:"updates"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	_, err := ctl.hub.UpdateNote(ctx, sess.User().ID, p.WorkspaceID, p.NoteID, p.Updates)
	return err
}

func (ctl *Controller) onNoteDelete(ctx context.Context, sess *core.Session, data json.RawMessage) error {
	var p struct {
		WorkspaceID domain.WorkspaceID `json:"workspaceId"`
		NoteID      domain.NoteID      `json:"noteId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return ctl.hub.DeleteNote(ctx, sess.User().ID, p.WorkspaceID, p.NoteID)
}

func (ctl *Controller) onNoteTyping(_ context.Context, sess *core.Session, data json.RawMessage) error {
	var p struct {
		WorkspaceID domain.WorkspaceID `json:"workspaceId"`
		NoteID      domain.NoteID      `json:"noteId"`
		IsTyping    bool               `json:"isTyping"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	ctl.hub.SetTyping(sess, p.WorkspaceID, p.NoteID, p.IsTyping)
	return nil
}

func (ctl *Controller) onPresenceRequest(_ context.Context, sess *core.Session, data json.RawMessage) error {
	var p struct {
		WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return ctl.hub.RequestPresence(sess, p.WorkspaceID)
}
