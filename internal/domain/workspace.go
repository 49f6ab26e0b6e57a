package domain

import (
	"time"

	"github.com/google/uuid"
)

type WorkspaceID string

type Workspace struct {
	ID          WorkspaceID `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	CreatedBy   UserID      `json:"createdBy"`
	Members     []UserID    `json:"members"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// NewWorkspace makes the creator the first member.
func NewWorkspace(name, description string, createdBy UserID) *Workspace {
	return &Workspace{
		ID:          WorkspaceID(uuid.NewString()),
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		Members:     []UserID{createdBy},
		CreatedAt:   time.Now().UTC(),
	}
}

func (w *Workspace) IsMember(id UserID) bool {
	for _, m := range w.Members {
		if m == id {
			return true
		}
	}
	return false
}
