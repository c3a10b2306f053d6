package ws

// Client requests.
const (
	NameEvent      = "name"
	JoinRoomEvent  = "join_room"
	LeaveRoomEvent = "leave_room"
)

// Server pushes.
const (
	ReplyEvent       = "reply"
	LobbyChangeEvent = "lobby_change"
)

// Reply error texts.
const (
	errNotAMember   = "You are not a member."
	errInvalidRoom  = "Invalid room."
	errUnknownEvent = "Unknown event."
	errBadRequest   = "Malformed request."
)
