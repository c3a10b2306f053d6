package members

import (
	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/contracts"
)

// createMemberRequest is decoded straight into member options, so extra
// keys become member attributes.
type createMemberRequest = domain.MemberOptions

type memberResponse struct {
	contracts.MemberView
	RoomIDs []string `json:"roomIds"`
}

func newMemberResponse(m *domain.Member) memberResponse {
	ids := m.RoomIDs()
	if ids == nil {
		ids = []string{}
	}
	return memberResponse{
		MemberView: contracts.NewMemberView(m),
		RoomIDs:    ids,
	}
}
