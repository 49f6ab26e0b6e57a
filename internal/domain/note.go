package domain

import (
	"time"

	"github.com/google/uuid"
)

const DefaultNoteTitle = "Untitled"

type NoteID string

type Note struct {
	ID           NoteID      `json:"id"`
	WorkspaceID  WorkspaceID `json:"workspaceId"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	LastEditedBy UserID      `json:"lastEditedBy"`
	LastEditedAt time.Time   `json:"lastEditedAt"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// NotePatch is a partial update; nil fields are left untouched.
// Whichever patch reaches the store last wins.
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func NewNote(workspaceID WorkspaceID, title, content string, editedBy UserID) *Note {
	if title == "" {
		title = DefaultNoteTitle
	}
	now := time.Now().UTC()
	return &Note{
		ID:           NoteID(uuid.NewString()),
		WorkspaceID:  workspaceID,
		Title:        title,
		Content:      content,
		LastEditedBy: editedBy,
		LastEditedAt: now,
		CreatedAt:    now,
	}
}

// Apply merges p onto the note and stamps the editor.
func (n *Note) Apply(p NotePatch, editedBy UserID) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	n.LastEditedBy = editedBy
	n.LastEditedAt = time.Now().UTC()
}
