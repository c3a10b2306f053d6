package messaging

import (
	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/contracts"
)

// RoutingKeys maps lobby notifications onto broker routing keys.
var RoutingKeys = map[string]string{
	domain.EventRoomAdd:   contracts.EventRoomAdded,
	domain.EventRoomOpen:  contracts.EventRoomOpened,
	domain.EventRoomClose: contracts.EventRoomClosed,
	domain.EventRoomEnd:   contracts.EventRoomEnded,
}

// LobbyRoutingPattern binds a queue to every lobby room event.
const LobbyRoutingPattern = "lobby.room.*"
