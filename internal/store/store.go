// Package store is the durable side of the system: users, workspaces
// and notes live here, reachable by id. The realtime hub treats it as
// an external collaborator and only ever calls through the Store
// interface.
package store

import (
	"context"
	"errors"

	"github.com/dkeye/noteroom/internal/domain"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	CreateWorkspace(ctx context.Context, ws *domain.Workspace) error
	FindWorkspaceByID(ctx context.Context, id domain.WorkspaceID) (*domain.Workspace, error)
	ListWorkspacesFor(ctx context.Context, userID domain.UserID) ([]*domain.Workspace, error)
	AddMember(ctx context.Context, id domain.WorkspaceID, userID domain.UserID) (*domain.Workspace, error)

	CreateNote(ctx context.Context, note *domain.Note) error
	FindNoteByID(ctx context.Context, id domain.NoteID) (*domain.Note, error)
	ListNotes(ctx context.Context, workspaceID domain.WorkspaceID) ([]*domain.Note, error)
	UpdateNote(ctx context.Context, id domain.NoteID, patch domain.NotePatch, editedBy domain.UserID) (*domain.Note, error)
	DeleteNote(ctx context.Context, id domain.NoteID) error

	Close() error
}
