package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/contracts"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/redis/go-redis/v9"
)

// Board publishes the current lobby supply to Redis so other processes can
// read it. It is write-only: nothing is restored from it on startup.
type Board struct {
	redis     *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    logging.Logger
	pending   chan snapshot
}

type snapshot struct {
	lobbyID string
	data    []byte
}

type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

func NewBoard(opts Options, logger logging.Logger) *Board {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Board{
		redis:     client,
		keyPrefix: opts.KeyPrefix,
		ttl:       ttl,
		logger:    logger,
		pending:   make(chan snapshot, 1),
	}
}

func (b *Board) Ping(ctx context.Context) error {
	return b.redis.Ping(ctx).Err()
}

func (b *Board) Close() error {
	return b.redis.Close()
}

func (b *Board) Key(lobbyID string) string {
	return b.keyPrefix + lobbyID
}

// Write stores the serialized lobby under its key with the board TTL.
func (b *Board) Write(ctx context.Context, l *domain.Lobby) error {
	data, err := json.Marshal(contracts.NewLobbyView(l))
	if err != nil {
		return fmt.Errorf("marshal lobby %s: %w", l.ID(), err)
	}

	return b.put(ctx, l.ID(), data)
}

func (b *Board) put(ctx context.Context, lobbyID string, data []byte) error {
	return b.redis.Set(ctx, b.Key(lobbyID), data, b.ttl).Err()
}

// Read returns the last snapshot written for lobbyID. The bool is false when
// none exists or it expired.
func (b *Board) Read(ctx context.Context, lobbyID string) (contracts.LobbyView, bool, error) {
	var view contracts.LobbyView

	data, err := b.redis.Get(ctx, b.Key(lobbyID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return view, false, nil
		}
		return view, false, err
	}

	if err := json.Unmarshal(data, &view); err != nil {
		return view, false, err
	}
	return view, true, nil
}

// Observe queues a fresh snapshot after every lobby notification. Only the
// newest queued snapshot is kept; Run writes it.
func (b *Board) Observe(l *domain.Lobby) {
	queue := func(ev domain.LobbyEvent) {
		data, err := json.Marshal(contracts.NewLobbyView(l))
		if err != nil {
			b.logger.Error(logging.Redis, logging.Snapshot, "failed to marshal lobby snapshot", map[logging.ExtraKey]any{
				logging.LobbyID:      l.ID(),
				logging.ErrorMessage: err.Error(),
			})
			return
		}
		b.enqueue(snapshot{lobbyID: l.ID(), data: data})
	}

	for _, event := range []string{
		domain.EventRoomAdd, domain.EventRoomOpen,
		domain.EventRoomClose, domain.EventRoomEnd,
	} {
		l.On(event, queue)
	}
}

// enqueue never blocks. A snapshot still waiting to be written is replaced.
func (b *Board) enqueue(s snapshot) {
	select {
	case b.pending <- s:
		return
	default:
	}

	select {
	case <-b.pending:
	default:
	}
	select {
	case b.pending <- s:
	default:
	}
}

// Run writes queued snapshots until ctx is done.
func (b *Board) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-b.pending:
			writeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := b.put(writeCtx, s.lobbyID, s.data)
			cancel()
			if err != nil {
				b.logger.Error(logging.Redis, logging.Snapshot, "failed to write lobby snapshot", map[logging.ExtraKey]any{
					logging.LobbyID:      s.lobbyID,
					logging.ErrorMessage: err.Error(),
				})
			}
		}
	}
}
