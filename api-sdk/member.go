package apisdk

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/hilthontt/lobby/api-sdk/internal/requestconfig"
	"github.com/hilthontt/lobby/api-sdk/option"
)

type MemberService struct {
	Options []option.RequestOption
}

func NewMemberService(opts ...option.RequestOption) *MemberService {
	return &MemberService{opts}
}

func (m *MemberService) New(ctx context.Context, body MemberNewParams, opts ...option.RequestOption) (*Member, error) {
	opts = slices.Concat(m.Options, opts)

	res := &Member{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, "members", body, res, opts...)

	return res, err
}

func (m *MemberService) Get(ctx context.Context, id string, opts ...option.RequestOption) (*Member, error) {
	opts = slices.Concat(m.Options, opts)
	if id == "" {
		return nil, ErrMissingIDParameter
	}

	res := &Member{}
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, fmt.Sprintf("members/%s", id), nil, res, opts...)

	return res, err
}

func (m *MemberService) List(ctx context.Context, opts ...option.RequestOption) ([]Member, error) {
	opts = slices.Concat(m.Options, opts)

	var res []Member
	err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, "members", nil, &res, opts...)

	return res, err
}

// Delete forgets the member; it leaves every room it was in.
func (m *MemberService) Delete(ctx context.Context, id string, opts ...option.RequestOption) error {
	opts = slices.Concat(m.Options, opts)
	if id == "" {
		return ErrMissingIDParameter
	}

	return requestconfig.ExecuteNewRequest(ctx, http.MethodDelete, fmt.Sprintf("members/%s", id), nil, nil, opts...)
}

// MemberNewParams names the member. A nil Name lets the server pick one.
type MemberNewParams struct {
	Name *string `json:"name,omitempty"`

	Attributes map[string]any `json:"-"`
}

func (p MemberNewParams) MarshalJSON() ([]byte, error) {
	type plain MemberNewParams
	return flatten(plain(p), p.Attributes)
}
