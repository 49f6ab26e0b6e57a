package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/noteroom/internal/domain"
	"github.com/dkeye/noteroom/internal/store"
)

// InviteMember notifies the invited user on every connection they
// currently hold, independent of workspace rooms. If they are offline
// the notification is simply not delivered.
func (h *Hub) InviteMember(ctx context.Context, actor domain.User, wsID domain.WorkspaceID, email string) (*domain.User, error) {
	ws, err := h.requireMember(ctx, actor.ID, wsID)
	if err != nil {
		return nil, err
	}

	target, err := h.store.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if ws.IsMember(target.ID) {
		return nil, ErrAlreadyMember
	}

	h.SendToUser(target.ID, domain.EvInvitation, InvitationPayload{
		Workspace:        ws,
		InvitedUserID:    target.ID,
		InvitedUserEmail: target.Email,
		InvitedBy:        actor.Name,
		InvitedByID:      actor.ID,
		WorkspaceID:      wsID,
		Timestamp:        time.Now().UTC(),
	})
	log.Info().Str("module", "app.hub").Str("workspace", string(wsID)).Str("invited", string(target.ID)).Msg("invitation sent")
	return target, nil
}

// AcceptInvitation adds the user to the workspace and tells the room.
// Accepting twice is not an error; the second call reports
// alreadyMember and broadcasts nothing.
func (h *Hub) AcceptInvitation(ctx context.Context, actor domain.User, wsID domain.WorkspaceID) (ws *domain.Workspace, alreadyMember bool, err error) {
	ws, err = h.store.FindWorkspaceByID(ctx, wsID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("workspace lookup: %w", err)
	}
	if ws.IsMember(actor.ID) {
		return ws, true, nil
	}

	ws, err = h.store.AddMember(ctx, wsID, actor.ID)
	if err != nil {
		return nil, false, fmt.Errorf("add member: %w", err)
	}

	member := actor
	member.PasswordHash = ""
	h.broadcast(domain.WorkspaceRoom(wsID), domain.EvMemberJoined, MemberJoinedPayload{
		Workspace: ws,
		NewMember: &member,
	})
	log.Info().Str("module", "app.hub").Str("workspace", string(wsID)).Str("user", string(actor.ID)).Msg("invitation accepted")
	return ws, false, nil
}
