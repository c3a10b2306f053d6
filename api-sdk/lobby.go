package apisdk

import (
	"context"
	"net/http"
	"slices"

	"github.com/hilthontt/lobby/api-sdk/internal/requestconfig"
	"github.com/hilthontt/lobby/api-sdk/option"
)

type LobbyService struct {
	Options []option.RequestOption
}

func NewLobbyService(opts ...option.RequestOption) *LobbyService {
	return &LobbyService{opts}
}

func (l *LobbyService) Get(ctx context.Context, opts ...option.RequestOption) (*Lobby, error) {
	opts = slices.Concat(l.Options, opts)

	res := &Lobby{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, "lobby", nil, res, opts...)

	return res, err
}

func (l *LobbyService) Update(ctx context.Context, body LobbyUpdateParams, opts ...option.RequestOption) (*Lobby, error) {
	opts = slices.Concat(l.Options, opts)

	res := &Lobby{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodPatch, "lobby", body, res, opts...)

	return res, err
}

type LobbyUpdateParams struct {
	Name         *string `json:"name,omitempty"`
	MinOpenRooms *int    `json:"minOpenRooms,omitempty"`
	MaxRooms     *int    `json:"maxRooms,omitempty"`
}
