package rooms

import (
	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/contracts"
)

// membershipRequest names the member to seat or unseat. When MemberID is
// empty the member cookie is used.
type membershipRequest struct {
	MemberID string `json:"memberId"`
}

// roomResponse is the room detail served over HTTP. Broadcasts carry only
// the embedded view.
type roomResponse struct {
	contracts.RoomView
	SoftMemberCap int            `json:"softMemberCap"`
	HasEnded      bool           `json:"hasEnded"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

func newRoomResponse(r *domain.Room) roomResponse {
	return roomResponse{
		RoomView:      contracts.NewRoomView(r),
		SoftMemberCap: r.SoftMemberCap(),
		HasEnded:      r.HasEnded(),
		Attributes:    r.Attributes(),
	}
}
