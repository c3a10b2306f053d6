package apisdk

import (
	"context"
	"net/http"
	"os"
	"slices"

	"github.com/hilthontt/lobby/api-sdk/internal/requestconfig"
	"github.com/hilthontt/lobby/api-sdk/option"
)

// Client talks to a lobby server. Its services share Options; per-call options
// are appended after them.
type Client struct {
	Options []option.RequestOption
	Lobby   *LobbyService
	Rooms   *RoomService
	Members *MemberService
	Health  *HealthService
}

func DefaultClientOptions() []option.RequestOption {
	defaults := []option.RequestOption{
		option.WithEnvironmentDev(),
	}
	if o, ok := os.LookupEnv("LOBBY_BASE_URL"); ok {
		defaults = append(defaults, option.WithBaseURL(o))
	}
	return defaults
}

func NewClient(opts ...option.RequestOption) *Client {
	opts = append(DefaultClientOptions(), opts...)

	r := &Client{
		Options: opts,
		Lobby:   NewLobbyService(opts...),
		Rooms:   NewRoomService(opts...),
		Members: NewMemberService(opts...),
		Health:  NewHealthService(opts...),
	}

	return r
}

func (c *Client) Execute(ctx context.Context, method, path string, params, res any, opts ...option.RequestOption) error {
	opts = slices.Concat(c.Options, opts)
	return requestconfig.ExecuteNewRequest(ctx, method, path, params, res, opts...)
}

func (c *Client) Get(ctx context.Context, path string, params, res any, opts ...option.RequestOption) error {
	return c.Execute(ctx, http.MethodGet, path, params, res, opts...)
}

func (c *Client) Post(ctx context.Context, path string, params, res any, opts ...option.RequestOption) error {
	return c.Execute(ctx, http.MethodPost, path, params, res, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, params, res any, opts ...option.RequestOption) error {
	return c.Execute(ctx, http.MethodPatch, path, params, res, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, params, res any, opts ...option.RequestOption) error {
	return c.Execute(ctx, http.MethodDelete, path, params, res, opts...)
}
