package app

import "errors"

// Error text doubles as the wire message of the targeted error event,
// so it matches what clients already display.
var (
	ErrWorkspaceNotFound = errors.New("Workspace not found")
	ErrAccessDenied      = errors.New("Access denied to workspace")
	ErrNoteNotFound      = errors.New("Note not found")
	ErrUserNotFound      = errors.New("No user found with this email address")
	ErrAlreadyMember     = errors.New("Already a member of this workspace")
)
