package domain

import "strings"

const (
	userRoomPrefix      = "user:"
	workspaceRoomPrefix = "workspace:"
)

// RoomKey names a broadcast group: either a personal room (user:<id>)
// or a workspace room (workspace:<id>).
type RoomKey string

func UserRoom(id UserID) RoomKey {
	return RoomKey(userRoomPrefix + string(id))
}

func WorkspaceRoom(id WorkspaceID) RoomKey {
	return RoomKey(workspaceRoomPrefix + string(id))
}

func (k RoomKey) IsWorkspaceRoom() bool {
	return strings.HasPrefix(string(k), workspaceRoomPrefix)
}

// WorkspaceID returns the workspace a room belongs to, or "" for
// personal rooms.
func (k RoomKey) WorkspaceID() WorkspaceID {
	if !k.IsWorkspaceRoom() {
		return ""
	}
	return WorkspaceID(strings.TrimPrefix(string(k), workspaceRoomPrefix))
}
