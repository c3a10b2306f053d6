package rooms

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/json"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/hilthontt/lobby/internal/infrastructure/tracing"
	"github.com/hilthontt/lobby/internal/presentation/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	lobby   *domain.Lobby
	members domain.MemberRepository
	logger  logging.Logger
}

func NewHandler(lobby *domain.Lobby, members domain.MemberRepository, logger logging.Logger) *Handler {
	return &Handler{
		lobby:   lobby,
		members: members,
		logger:  logger,
	}
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracing.GetTracer("lobby/http").Start(ctx, name)
}

// CreateRoomHandler creates a room from the lobby template; the body holds
// option overrides.
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r.Context(), "rooms.create")
	defer span.End()

	var overrides domain.RoomOptions
	if err := json.Read(r, &overrides); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, err := h.lobby.CreateRoom(overrides)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrTooManyRooms) {
			h.logger.Warn(logging.Lobby, logging.Provisioning, "room ceiling reached", map[logging.ExtraKey]any{
				logging.LobbyID: h.lobby.ID(),
			})
		}
		json.WriteDomainError(w, err)
		return
	}

	span.SetAttributes(attribute.String("room.id", room.ID()))
	_ = json.Write(w, http.StatusCreated, newRoomResponse(room))
}

func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}

	_ = json.Write(w, http.StatusOK, newRoomResponse(room))
}

func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, "rooms.join", func(room *domain.Room, m *domain.Member) error {
		return room.AddMember(m)
	})
}

func (h *Handler) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, "rooms.leave", func(room *domain.Room, m *domain.Member) error {
		return room.RemoveMember(m)
	})
}

func (h *Handler) OpenRoomHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*domain.Room).Open)
}

func (h *Handler) CloseRoomHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*domain.Room).Close)
}

func (h *Handler) EndRoomHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*domain.Room).End)
}

func (h *Handler) room(w http.ResponseWriter, r *http.Request) (*domain.Room, bool) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return nil, false
	}

	room, ok := h.lobby.Room(roomID)
	if !ok {
		json.WriteDomainError(w, domain.ErrRoomNotFound)
		return nil, false
	}
	return room, true
}

func (h *Handler) membership(w http.ResponseWriter, r *http.Request, op string, apply func(*domain.Room, *domain.Member) error) {
	ctx, span := startSpan(r.Context(), op)
	defer span.End()

	room, ok := h.room(w, r)
	if !ok {
		return
	}

	var req membershipRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}
	if req.MemberID == "" {
		req.MemberID = utils.GetMemberID(r)
	}
	if req.MemberID == "" {
		json.WriteError(w, http.StatusUnauthorized, "Missing member: create one first or pass memberId")
		return
	}

	member, err := h.members.GetByID(ctx, req.MemberID)
	if err != nil {
		json.WriteDomainError(w, err)
		return
	}

	span.SetAttributes(
		attribute.String("room.id", room.ID()),
		attribute.String("member.id", member.ID()),
	)

	if err := apply(room, member); err != nil {
		span.RecordError(err)
		json.WriteDomainError(w, err)
		return
	}

	_ = json.Write(w, http.StatusOK, newRoomResponse(room))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(*domain.Room) *domain.Room) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}

	_ = json.Write(w, http.StatusOK, newRoomResponse(apply(room)))
}
