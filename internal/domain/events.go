package domain

// Inbound event names accepted over a connection.
const (
	EvUserOnline      = "user.online"
	EvWorkspaceJoin   = "workspace.join"
	EvWorkspaceLeave  = "workspace.leave"
	EvNoteCreate      = "note.create"
	EvNoteUpdate      = "note.update"
	EvNoteDelete      = "note.delete"
	EvNoteTyping      = "note.typing"
	EvPresenceRequest = "presence.request"
)

// Outbound event names delivered to connections.
const (
	EvNoteCreated  = "note.created"
	EvNoteUpdated  = "note.updated"
	EvNoteDeleted  = "note.deleted"
	EvPresence     = "presence.update"
	EvInvitation   = "workspace.invitation"
	EvMemberJoined = "member.joined"
	EvError        = "error"
)
