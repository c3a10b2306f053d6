package domain

// Room notifications.
const (
	EventOpen         = "open"
	EventClose        = "close"
	EventEnd          = "end"
	EventMemberAdd    = "member_add"
	EventMemberRemove = "member_remove"
	EventSoftFull     = "soft_full"
	EventFull         = "full"
)

// Member notifications.
const (
	EventRoomJoin  = "room_join"
	EventRoomLeave = "room_leave"
)

// Lobby notifications.
const (
	EventRoomAdd   = "room_add"
	EventRoomOpen  = "room_open"
	EventRoomClose = "room_close"
	EventRoomEnd   = "room_end"
)

// EventError is emitted by any entity when a guarded reconfiguration is
// rejected. The payload's Err field carries the reason.
const EventError = "error"

type RoomEvent struct {
	Room   *Room
	Member Participant
	Err    error
}

type MemberEvent struct {
	Member *Member
	Room   *Room
	Err    error
}

type LobbyEvent struct {
	Lobby *Lobby
	Room  *Room
	Err   error
}
