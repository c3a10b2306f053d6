package json

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hilthontt/lobby/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	resp := ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func WriteValidationError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusBadRequest, err.Error())
}

func WriteBadRequestError(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusBadRequest, msg)
}

func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "An unexpected error occurred")
}

// StatusFor maps a lobby error onto the HTTP status clients see for it.
func StatusFor(err error) int {
	var cfgErr *domain.ConfigError

	switch {
	case errors.As(err, &cfgErr),
		errors.Is(err, domain.ErrWrongType),
		errors.Is(err, domain.ErrMalformedMember),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyInRoom),
		errors.Is(err, domain.ErrRoomClosed),
		errors.Is(err, domain.ErrRoomFull),
		errors.Is(err, domain.ErrTooManyRooms),
		errors.Is(err, domain.ErrMemberAlreadyExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteDomainError writes err with the status StatusFor picks. Unknown errors
// are reported without their message.
func WriteDomainError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		WriteInternalError(w)
		return
	}
	WriteError(w, status, err.Error())
}

func WriteRateLimitError(w http.ResponseWriter, retryAfter int) {
	resp := ErrorResponse{
		Error:   http.StatusText(http.StatusTooManyRequests),
		Message: "Too many requests. Please try again later.",
	}

	w.Header().Set("Content-Type", "application/json")
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(resp)
}
