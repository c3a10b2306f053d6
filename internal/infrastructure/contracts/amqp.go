package contracts

import "time"

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	LobbyID    string    `json:"lobbyId"`
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       []byte    `json:"data"`
}

// Routing keys - using consistent event/command patterns
const (
	EventRoomAdded  = "lobby.room.added"
	EventRoomOpened = "lobby.room.opened"
	EventRoomClosed = "lobby.room.closed"
	EventRoomEnded  = "lobby.room.ended"
)

// RoomEventData is the payload carried in AmqpMessage.Data.
type RoomEventData struct {
	Room RoomView `json:"room"`
}
