package lobby

import (
	"net/http"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/json"
	"github.com/hilthontt/lobby/internal/infrastructure/tracing"
	"go.opentelemetry.io/otel/attribute"
)

type Handler struct {
	lobby *domain.Lobby
}

func NewHandler(lobby *domain.Lobby) *Handler {
	return &Handler{lobby: lobby}
}

func (h *Handler) GetLobbyHandler(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GetTracer("lobby/http").Start(r.Context(), "lobby.get")
	defer span.End()

	view := newLobbyResponse(h.lobby)
	span.SetAttributes(attribute.Int("lobby.rooms", len(view.Rooms)))

	_ = json.Write(w, http.StatusOK, view)
}

// UpdateLobbyHandler applies the given fields in order name, maxRooms,
// minOpenRooms and stops at the first rejected one.
func (h *Handler) UpdateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GetTracer("lobby/http").Start(r.Context(), "lobby.update")
	defer span.End()

	var req updateLobbyRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if req.Name != nil {
		if err := h.lobby.Rename(*req.Name); err != nil {
			span.RecordError(err)
			json.WriteDomainError(w, err)
			return
		}
	}
	// raise the ceiling before the target so provisioning sees both
	if req.MaxRooms != nil {
		if err := h.lobby.SetMaxRooms(*req.MaxRooms); err != nil {
			span.RecordError(err)
			json.WriteDomainError(w, err)
			return
		}
	}
	if req.MinOpenRooms != nil {
		if err := h.lobby.SetMinOpenRooms(*req.MinOpenRooms); err != nil {
			span.RecordError(err)
			json.WriteDomainError(w, err)
			return
		}
	}

	_ = json.Write(w, http.StatusOK, newLobbyResponse(h.lobby))
}
