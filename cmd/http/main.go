package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/configs"
	"github.com/hilthontt/lobby/internal/infrastructure/events"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/hilthontt/lobby/internal/infrastructure/messaging"
	"github.com/hilthontt/lobby/internal/infrastructure/metrics"
	"github.com/hilthontt/lobby/internal/infrastructure/notify"
	"github.com/hilthontt/lobby/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/lobby/internal/infrastructure/repository"
	"github.com/hilthontt/lobby/internal/infrastructure/snapshot"
	"github.com/hilthontt/lobby/internal/infrastructure/tracing"
	"github.com/hilthontt/lobby/internal/infrastructure/ws"
	"github.com/hilthontt/lobby/internal/presentation/api"
	"github.com/hilthontt/lobby/internal/presentation/handler/health"
	lobbyHandler "github.com/hilthontt/lobby/internal/presentation/handler/lobby"
	"github.com/hilthontt/lobby/internal/presentation/handler/members"
	"github.com/hilthontt/lobby/internal/presentation/handler/rooms"
)

func main() {
	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.LoggerConfig{
		FilePath: cfg.Logger.FilePath,
		Encoding: cfg.Logger.Encoding,
		Level:    cfg.Logger.Level,
		Logger:   cfg.Logger.Logger,
	})
	if err != nil {
		log.Fatal(err)
	}
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(ctx, tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Environment: cfg.Tracing.Environment,
			Exporter:    cfg.Tracing.Exporter,
			Endpoint:    cfg.Tracing.Endpoint,
		})
		if err != nil {
			logger.Fatal(logging.General, logging.Startup, "failed to initialize tracing", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	scheduler := notify.NewScheduler(func(recovered any) {
		logger.Error(logging.Internal, logging.Recover, "notification handler panicked", map[logging.ExtraKey]any{
			"Recovered": recovered,
		})
	})

	factory := domain.NewFactory(scheduler)
	lobby, err := factory.NewLobby(cfg.Lobby)
	if err != nil {
		logger.Fatal(logging.Lobby, logging.Startup, "invalid lobby configuration", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	lobby.On(domain.EventError, func(ev domain.LobbyEvent) {
		logger.Warn(logging.Lobby, logging.Provisioning, "lobby reported an error", map[logging.ExtraKey]any{
			logging.LobbyID:      lobby.ID(),
			logging.ErrorMessage: ev.Err.Error(),
		})
	})

	checks := map[string]health.Check{}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		collector.Observe(lobby)
	}

	if cfg.RabbitMQ.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatal(logging.RabbitMQ, logging.Startup, "failed to connect to rabbitmq", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
		defer rabbitmq.Close()

		publisher := events.NewLobbyPublisher(rabbitmq, logger)
		publisher.Observe(lobby)
		go publisher.Run(ctx)

		consumer := events.NewLobbyConsumer(rabbitmq, cfg.RabbitMQ.Queue, logger)
		go func() {
			if err := consumer.Listen(ctx); err != nil {
				logger.Error(logging.RabbitMQ, logging.Consume, "lobby consumer stopped", map[logging.ExtraKey]any{
					logging.ErrorMessage: err.Error(),
				})
			}
		}()
	}

	if cfg.Redis.Enabled {
		board := snapshot.NewBoard(snapshot.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		}, logger)
		defer board.Close()

		board.Observe(lobby)
		go board.Run(ctx)
		checks["redis"] = board.Ping
	}

	memberRepository := repository.NewMemberRepository(cfg.MemberStore.Capacity, cfg.MemberStore.IdleExpiry, logger)
	go memberRepository.RunJanitor(ctx, time.Minute)

	hub := ws.NewHub(lobby, factory, memberRepository, cfg.HTTP.AllowedOrigins, logger)
	hub.Observe(lobby)
	memberRepository.OnEvict(func(*domain.Member) { hub.NotifyLobbyChange() })
	go hub.Run(ctx)

	// subscribers are attached, so the first provisioning pass may run
	go scheduler.Run(ctx)

	var limiter ratelimiter.Limiter
	if cfg.RateLimiter.Enabled {
		fixedWindow := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
		defer fixedWindow.Close()
		limiter = fixedWindow
	}

	handlers := api.Handlers{
		Lobby:     lobbyHandler.NewHandler(lobby),
		Rooms:     rooms.NewHandler(lobby, memberRepository, logger),
		Members:   members.NewHandler(factory, memberRepository, logger),
		Health:    health.NewHandler(checks),
		Websocket: hub.ServeWS,
	}
	if collector != nil {
		handlers.Metrics = collector.Handler()
	}

	app := api.NewApplication(*cfg, handlers, logger, limiter)

	logger.Info(logging.Lobby, logging.Startup, "lobby ready", map[logging.ExtraKey]any{
		logging.LobbyID: lobby.ID(),
		"ConfigPath":    configPath,
	})

	if err := app.Run(ctx, app.Mount()); err != nil {
		logger.Error(logging.General, logging.Shutdown, "server stopped with error", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
}
