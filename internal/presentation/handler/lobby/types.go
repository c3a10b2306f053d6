package lobby

import (
	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/contracts"
)

type updateLobbyRequest struct {
	Name         *string `json:"name"`
	MinOpenRooms *int    `json:"minOpenRooms"`
	MaxRooms     *int    `json:"maxRooms"`
}

// lobbyResponse adds the provisioning settings to the broadcast view so
// PATCH callers can see what was applied.
type lobbyResponse struct {
	contracts.LobbyView
	MinOpenRooms int `json:"minOpenRooms"`
	MaxRooms     int `json:"maxRooms"`
}

func newLobbyResponse(l *domain.Lobby) lobbyResponse {
	return lobbyResponse{
		LobbyView:    contracts.NewLobbyView(l),
		MinOpenRooms: l.MinOpenRooms(),
		MaxRooms:     l.MaxRooms(),
	}
}
