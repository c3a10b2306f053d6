package apisdk

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/hilthontt/lobby/api-sdk/internal/requestconfig"
	"github.com/hilthontt/lobby/api-sdk/option"
)

type RoomService struct {
	Options []option.RequestOption
}

func NewRoomService(opts ...option.RequestOption) *RoomService {
	r := &RoomService{opts}
	return r
}

// New creates a room from the lobby's template with params applied on top.
// It fails with a 409 once the lobby is at its room ceiling.
func (r *RoomService) New(ctx context.Context, body RoomNewParams, opts ...option.RequestOption) (*Room, error) {
	opts = slices.Concat(r.Options, opts)
	path := "rooms"

	res := &Room{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, res, opts...)

	return res, err
}

func (r *RoomService) Get(ctx context.Context, id string, opts ...option.RequestOption) (*Room, error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		return nil, ErrMissingIDParameter
	}

	path := fmt.Sprintf("rooms/%s", id)
	res := &Room{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, res, opts...)

	return res, err
}

// Join seats memberID in the room. An empty memberID falls back to the
// member set with option.WithMemberID.
func (r *RoomService) Join(ctx context.Context, id, memberID string, opts ...option.RequestOption) (*Room, error) {
	return r.membership(ctx, id, "join", memberID, opts)
}

func (r *RoomService) Leave(ctx context.Context, id, memberID string, opts ...option.RequestOption) (*Room, error) {
	return r.membership(ctx, id, "leave", memberID, opts)
}

func (r *RoomService) Open(ctx context.Context, id string, opts ...option.RequestOption) (*Room, error) {
	return r.transition(ctx, id, "open", opts)
}

func (r *RoomService) Close(ctx context.Context, id string, opts ...option.RequestOption) (*Room, error) {
	return r.transition(ctx, id, "close", opts)
}

func (r *RoomService) End(ctx context.Context, id string, opts ...option.RequestOption) (*Room, error) {
	return r.transition(ctx, id, "end", opts)
}

func (r *RoomService) membership(ctx context.Context, id, action, memberID string, opts []option.RequestOption) (*Room, error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		return nil, ErrMissingIDParameter
	}

	path := fmt.Sprintf("rooms/%s/%s", id, action)
	res := &Room{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, membershipParams{MemberID: memberID}, res, opts...)

	return res, err
}

func (r *RoomService) transition(ctx context.Context, id, action string, opts []option.RequestOption) (*Room, error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		return nil, ErrMissingIDParameter
	}

	path := fmt.Sprintf("rooms/%s/%s", id, action)
	res := &Room{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, nil, res, opts...)

	return res, err
}

// RoomNewParams overrides the lobby's room template. Unset fields keep the
// template's value; Attributes are sent as extra top-level keys.
type RoomNewParams struct {
	Name               *string `json:"name,omitempty"`
	SoftMemberCap      *int    `json:"softMemberCap,omitempty"`
	MemberCap          *int    `json:"memberCap,omitempty"`
	IsOpen             *bool   `json:"isOpen,omitempty"`
	CloseOnFull        *bool   `json:"closeOnFull,omitempty"`
	EndOnCloseAndEmpty *bool   `json:"endOnCloseAndEmpty,omitempty"`
	OpenWhenNotFull    *bool   `json:"openWhenNotFull,omitempty"`

	Attributes map[string]any `json:"-"`
}

func (p RoomNewParams) MarshalJSON() ([]byte, error) {
	type plain RoomNewParams
	return flatten(plain(p), p.Attributes)
}

type membershipParams struct {
	MemberID string `json:"memberId,omitempty"`
}
