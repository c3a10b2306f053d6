package members

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/hilthontt/lobby/internal/infrastructure/notify"
	"github.com/hilthontt/lobby/internal/infrastructure/repository"
	"github.com/hilthontt/lobby/internal/presentation/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (http.Handler, *repository.MemberRepository) {
	t.Helper()
	logger := logging.NewNopLogger()
	members := repository.NewMemberRepository(10, time.Hour, logger)
	h := NewHandler(domain.NewFactory(notify.NewScheduler(nil)), members, logger)

	r := chi.NewRouter()
	r.Get("/api/members", h.ListMembersHandler)
	r.Post("/api/members", h.CreateMemberHandler)
	r.Get("/api/members/{memberId}", h.GetMemberHandler)
	r.Delete("/api/members/{memberId}", h.DeleteMemberHandler)
	return r, members
}

func TestCreateMemberHandler(t *testing.T) {
	router, members := newRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(`{"name":"Alice","team":"red"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var view memberResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, "Alice", view.Name)
	assert.Empty(t, view.RoomIDs)

	stored, err := members.GetByID(req.Context(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "red", stored.Attributes()["team"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, utils.CookieMemberID, cookies[0].Name)
}

func TestCreateMemberHandler_DefaultName(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/members", nil))

	require.Equal(t, http.StatusCreated, rec.Code)

	var view memberResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.True(t, strings.HasPrefix(view.Name, "Member "))
}

func TestCreateMemberHandler_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty name", body: `{"name":""}`},
		{name: "name too long", body: `{"name":"` + strings.Repeat("x", 256) + `"}`},
		{name: "name not a string", body: `{"name":42}`},
		{name: "malformed", body: `{"name"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, members := newRouter(t)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, members.Count())
		})
	}
}

func TestGetMemberHandler(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(`{"name":"Bob"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created memberResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	cookie := rec.Result().Cookies()[0]

	t.Run("by id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/members/"+created.ID, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var view memberResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
		assert.Equal(t, created, view)
	})

	t.Run("me from cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/members/me", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var view memberResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
		assert.Equal(t, created.ID, view.ID)
	})

	t.Run("me without cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/members/me", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/members/nobody", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListAndDeleteMembers(t *testing.T) {
	router, members := newRouter(t)

	for _, name := range []string{"Ann", "Ben"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(`{"name":"`+name+`"}`)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/members", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var views []memberResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&views))
	require.Len(t, views, 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/members/"+views[0].ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, members.Count())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/members/"+views[0].ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
