package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/configs"
	"github.com/hilthontt/lobby/internal/infrastructure/contracts"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/hilthontt/lobby/internal/infrastructure/metrics"
	"github.com/hilthontt/lobby/internal/infrastructure/notify"
	"github.com/hilthontt/lobby/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/lobby/internal/infrastructure/repository"
	healthHandler "github.com/hilthontt/lobby/internal/presentation/handler/health"
	lobbyHandler "github.com/hilthontt/lobby/internal/presentation/handler/lobby"
	membersHandler "github.com/hilthontt/lobby/internal/presentation/handler/members"
	roomHandler "github.com/hilthontt/lobby/internal/presentation/handler/rooms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApplication(t *testing.T, cfg configs.Config, limiter ratelimiter.Limiter, checks map[string]healthHandler.Check) (http.Handler, *domain.Lobby, *notify.Scheduler) {
	t.Helper()
	logger := logging.NewNopLogger()
	scheduler := notify.NewScheduler(nil)
	factory := domain.NewFactory(scheduler)

	l, err := factory.NewLobby(domain.LobbyOptions{
		MinOpenRooms: domain.Int(2),
		MaxRooms:     domain.Int(3),
	})
	require.NoError(t, err)

	collector := metrics.NewCollector()
	collector.Observe(l)
	scheduler.Flush()

	members := repository.NewMemberRepository(10, time.Hour, logger)
	app := NewApplication(cfg, Handlers{
		Lobby:   lobbyHandler.NewHandler(l),
		Rooms:   roomHandler.NewHandler(l, members, logger),
		Members: membersHandler.NewHandler(factory, members, logger),
		Health:  healthHandler.NewHandler(checks),
		Metrics: collector.Handler(),
	}, logger, limiter)

	return app.Mount(), l, scheduler
}

func serve(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMount_Routes(t *testing.T) {
	router, l, scheduler := newApplication(t, configs.Config{}, nil, nil)

	rec := serve(router, http.MethodGet, "/api/lobby", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view contracts.LobbyView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, l.ID(), view.ID)
	assert.Len(t, view.Rooms, 2)

	rec = serve(router, http.MethodPost, "/api/members", `{"name":"Alice"}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(router, http.MethodPost, "/api/rooms", `{}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(router, http.MethodPost, "/api/rooms", `{}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, path := range []string{"/api/health", "/api/healthz", "/api/ready", "/api/live"} {
		rec = serve(router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	scheduler.Flush()
	rec = serve(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lobby_rooms 3")

	rec = serve(router, http.MethodGet, "/api/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMount_HealthReportsFailingCheck(t *testing.T) {
	router, _, _ := newApplication(t, configs.Config{}, nil, map[string]healthHandler.Check{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	assert.Equal(t, http.StatusServiceUnavailable, serve(router, http.MethodGet, "/api/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/live", "", nil).Code)
}

func TestMount_RateLimited(t *testing.T) {
	limiter := ratelimiter.NewFixedWindowRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Close)

	router, _, _ := newApplication(t, configs.Config{}, limiter, nil)

	headers := map[string]string{"X-Forwarded-For": "203.0.113.7"}
	for range 2 {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/lobby", "", headers).Code)
	}

	rec := serve(router, http.MethodGet, "/api/lobby", "", headers)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	other := map[string]string{"X-Forwarded-For": "203.0.113.8"}
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/lobby", "", other).Code)

	// metrics stay reachable for scrapers
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/metrics", "", headers).Code)
}

func TestMount_Cors(t *testing.T) {
	cfg := configs.Config{HTTP: configs.HTTPConfig{AllowedOrigins: []string{"https://play.example.com"}}}
	router, _, _ := newApplication(t, cfg, nil, nil)

	rec := serve(router, http.MethodOptions, "/api/rooms", "", map[string]string{"Origin": "https://play.example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://play.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	rec = serve(router, http.MethodGet, "/api/lobby", "", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMount_CustomMetricsPath(t *testing.T) {
	cfg := configs.Config{Metrics: configs.MetricsConfig{Path: "/internal/metrics"}}
	router, _, _ := newApplication(t, cfg, nil, nil)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/internal/metrics", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/metrics", "", nil).Code)
}
