package members

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/json"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/hilthontt/lobby/internal/presentation/utils"
)

type Handler struct {
	factory *domain.Factory
	members domain.MemberRepository
	logger  logging.Logger
}

func NewHandler(factory *domain.Factory, members domain.MemberRepository, logger logging.Logger) *Handler {
	return &Handler{
		factory: factory,
		members: members,
		logger:  logger,
	}
}

func (h *Handler) CreateMemberHandler(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	member, err := h.factory.NewMember(req)
	if err != nil {
		json.WriteDomainError(w, err)
		return
	}

	if err := h.members.Create(r.Context(), member); err != nil {
		h.logger.Error(logging.Member, logging.Request, "failed to store member", map[logging.ExtraKey]any{
			logging.MemberID:     member.ID(),
			logging.ErrorMessage: err.Error(),
		})
		json.WriteDomainError(w, err)
		return
	}

	utils.SetMemberIDCookie(w, member.ID())
	_ = json.Write(w, http.StatusCreated, newMemberResponse(member))
}

func (h *Handler) ListMembersHandler(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context())
	if err != nil {
		json.WriteDomainError(w, err)
		return
	}

	views := make([]memberResponse, 0, len(members))
	for _, m := range members {
		views = append(views, newMemberResponse(m))
	}

	_ = json.Write(w, http.StatusOK, views)
}

func (h *Handler) GetMemberHandler(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberId")
	if memberID == "me" {
		memberID = utils.GetMemberID(r)
	}
	if memberID == "" {
		json.WriteValidationError(w, errors.New("member ID is missing"))
		return
	}

	member, err := h.members.GetByID(r.Context(), memberID)
	if err != nil {
		json.WriteDomainError(w, err)
		return
	}

	_ = json.Write(w, http.StatusOK, newMemberResponse(member))
}

func (h *Handler) DeleteMemberHandler(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberId")

	if _, err := h.members.Delete(r.Context(), memberID); err != nil {
		json.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
