package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hilthontt/lobby/internal/infrastructure/configs"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/hilthontt/lobby/internal/infrastructure/ratelimiter"
	healthHandler "github.com/hilthontt/lobby/internal/presentation/handler/health"
	lobbyHandler "github.com/hilthontt/lobby/internal/presentation/handler/lobby"
	membersHandler "github.com/hilthontt/lobby/internal/presentation/handler/members"
	roomHandler "github.com/hilthontt/lobby/internal/presentation/handler/rooms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Application struct {
	config         configs.Config
	lobbyHandler   *lobbyHandler.Handler
	roomHandler    *roomHandler.Handler
	membersHandler *membersHandler.Handler
	healthHandler  *healthHandler.Handler
	websocket      http.HandlerFunc
	metrics        http.Handler
	logger         logging.Logger
	ratelimiter    ratelimiter.Limiter
}

// Handlers groups what the router serves. Metrics and Websocket may be nil,
// in which case their routes are not mounted.
type Handlers struct {
	Lobby     *lobbyHandler.Handler
	Rooms     *roomHandler.Handler
	Members   *membersHandler.Handler
	Health    *healthHandler.Handler
	Websocket http.HandlerFunc
	Metrics   http.Handler
}

// NewApplication wires the HTTP surface. A nil limiter disables rate
// limiting.
func NewApplication(
	config configs.Config,
	handlers Handlers,
	logger logging.Logger,
	limiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:         config,
		lobbyHandler:   handlers.Lobby,
		roomHandler:    handlers.Rooms,
		membersHandler: handlers.Members,
		healthHandler:  handlers.Health,
		websocket:      handlers.Websocket,
		metrics:        handlers.Metrics,
		logger:         logger,
		ratelimiter:    limiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.loggerMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(app.enableCors)

	if app.websocket != nil {
		// upgraded connections must not sit behind the request timeout
		r.Get("/ws", app.websocket)
	}
	if app.metrics != nil {
		r.Handle(app.metricsPath(), app.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		if app.ratelimiter != nil {
			r.Use(app.rateLimiterMiddleware)
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/lobby", app.lobbyHandler.GetLobbyHandler)
			r.Patch("/lobby", app.lobbyHandler.UpdateLobbyHandler)

			r.Route("/rooms", func(r chi.Router) {
				r.Post("/", app.roomHandler.CreateRoomHandler)
				r.Get("/{roomId}", app.roomHandler.GetRoomHandler)
				r.Post("/{roomId}/join", app.roomHandler.JoinRoomHandler)
				r.Post("/{roomId}/leave", app.roomHandler.LeaveRoomHandler)
				r.Post("/{roomId}/open", app.roomHandler.OpenRoomHandler)
				r.Post("/{roomId}/close", app.roomHandler.CloseRoomHandler)
				r.Post("/{roomId}/end", app.roomHandler.EndRoomHandler)
			})

			r.Route("/members", func(r chi.Router) {
				r.Get("/", app.membersHandler.ListMembersHandler)
				r.Post("/", app.membersHandler.CreateMemberHandler)
				r.Get("/{memberId}", app.membersHandler.GetMemberHandler)
				r.Delete("/{memberId}", app.membersHandler.DeleteMemberHandler)
			})

			r.Get("/health", app.healthHandler.GetHealth)
			r.Get("/healthz", app.healthHandler.GetHealth)
			r.Get("/ready", app.healthHandler.GetHealth)
			r.Get("/live", app.healthHandler.GetLive)
		})
	})

	return r
}

func (app *Application) metricsPath() string {
	if app.config.Metrics.Path == "" {
		return "/metrics"
	}
	return app.config.Metrics.Path
}

// Run serves mux until ctx is cancelled, then shuts down gracefully.
func (app *Application) Run(ctx context.Context, mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      otelhttp.NewHandler(mux, "lobby"),
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error, 1)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "shutdown requested", nil)

		shutdown <- srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"Addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdown; err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"Addr": srv.Addr,
	})

	return nil
}
