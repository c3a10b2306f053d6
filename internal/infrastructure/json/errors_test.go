package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrWrongType:      http.StatusBadRequest,
		domain.ErrMalformedMember: http.StatusBadRequest,
		&domain.ConfigError{Entity: "room", Err: errors.New("bad")}: http.StatusBadRequest,
		domain.ErrMemberNotFound: http.StatusNotFound,
		domain.ErrRoomNotFound:   http.StatusNotFound,
		domain.ErrAlreadyInRoom:  http.StatusConflict,
		domain.ErrRoomClosed:     http.StatusConflict,
		domain.ErrRoomEnded:      http.StatusConflict,
		domain.ErrRoomFull:       http.StatusConflict,
		domain.ErrTooManyRooms:   http.StatusConflict,
		fmt.Errorf("join: %w", domain.ErrRoomFull): http.StatusConflict,
		errors.New("disk on fire"):                 http.StatusInternalServerError,
	}

	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}

func TestWriteDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, domain.ErrRoomFull)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Conflict", resp.Error)
	assert.Equal(t, domain.ErrRoomFull.Error(), resp.Message)

	rec = httptest.NewRecorder()
	WriteDomainError(rec, errors.New("secret detail"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestWriteRateLimitError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRateLimitError(rec, 7)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "7", rec.Header().Get("Retry-After"))
}

func TestRead(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ada"}`))
	require.NoError(t, Read(req, &dst))
	assert.Equal(t, "ada", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, Read(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}{"name":"b"}`))
	assert.Error(t, Read(req, &dst))
}
