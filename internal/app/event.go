package app

import (
	"encoding/json"
	"time"

	"github.com/dkeye/noteroom/internal/core"
	"github.com/dkeye/noteroom/internal/domain"
)

// Event is the outbound wire envelope. Data holds the event-specific
// payload; events without one omit it.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Encode marshals an event once so a fan-out reuses the same frame for
// every recipient.
func Encode(name string, data any) (core.Frame, error) {
	b, err := json.Marshal(Event{Event: name, Data: data})
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}

type NotePayload struct {
	Note *domain.Note `json:"note"`
}

type NoteDeletedPayload struct {
	NoteID domain.NoteID `json:"noteId"`
}

type TypingPayload struct {
	NoteID   domain.NoteID `json:"noteId"`
	UserID   domain.UserID `json:"userId"`
	UserName string        `json:"userName"`
	IsTyping bool          `json:"isTyping"`
}

type PresencePayload struct {
	WorkspaceID domain.WorkspaceID   `json:"workspaceId"`
	Users       []core.PresenceEntry `json:"users"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type InvitationPayload struct {
	Workspace        *domain.Workspace  `json:"workspace"`
	InvitedUserID    domain.UserID      `json:"invitedUserId"`
	InvitedUserEmail string             `json:"invitedUserEmail"`
	InvitedBy        string             `json:"invitedBy"`
	InvitedByID      domain.UserID      `json:"invitedById"`
	WorkspaceID      domain.WorkspaceID `json:"workspaceId"`
	Timestamp        time.Time          `json:"timestamp"`
}

type MemberJoinedPayload struct {
	Workspace *domain.Workspace `json:"workspace"`
	NewMember *domain.User      `json:"newMember"`
}
