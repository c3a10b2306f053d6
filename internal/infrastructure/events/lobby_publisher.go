package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/contracts"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/hilthontt/lobby/internal/infrastructure/messaging"
)

type MessagePublisher interface {
	PublishMessage(ctx context.Context, routingKey string, message contracts.AmqpMessage) error
}

type outgoing struct {
	routingKey string
	roomID     string
	message    contracts.AmqpMessage
}

// LobbyPublisher forwards room lifecycle notifications to the broker. Lobby
// subscribers only queue messages; Run publishes them in order.
type LobbyPublisher struct {
	publisher MessagePublisher
	logger    logging.Logger
	timeout   time.Duration
	queue     chan outgoing
}

func NewLobbyPublisher(publisher MessagePublisher, logger logging.Logger) *LobbyPublisher {
	return &LobbyPublisher{
		publisher: publisher,
		logger:    logger,
		timeout:   5 * time.Second,
		queue:     make(chan outgoing, 256),
	}
}

// Observe queues every room lifecycle notification of l.
func (p *LobbyPublisher) Observe(l *domain.Lobby) {
	for event, routingKey := range messaging.RoutingKeys {
		l.On(event, func(ev domain.LobbyEvent) {
			message, err := NewRoomEventMessage(ev.Lobby.ID(), event, ev.Room)
			if err != nil {
				p.logFailure(event, routingKey, ev.Room.ID(), err)
				return
			}

			select {
			case p.queue <- outgoing{routingKey: routingKey, roomID: ev.Room.ID(), message: message}:
			default:
				p.logger.Warn(logging.RabbitMQ, logging.Publish, "publish queue full, dropping lobby event", map[logging.ExtraKey]any{
					logging.Event:      event,
					logging.RoutingKey: routingKey,
					logging.RoomID:     ev.Room.ID(),
				})
			}
		})
	}
}

// Run publishes queued events until ctx is done.
func (p *LobbyPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-p.queue:
			publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
			err := p.publisher.PublishMessage(publishCtx, out.routingKey, out.message)
			cancel()
			if err != nil {
				p.logFailure(out.message.Event, out.routingKey, out.roomID, err)
			}
		}
	}
}

func (p *LobbyPublisher) PublishRoomEvent(ctx context.Context, lobbyID, event, routingKey string, room *domain.Room) error {
	message, err := NewRoomEventMessage(lobbyID, event, room)
	if err != nil {
		return err
	}
	return p.publisher.PublishMessage(ctx, routingKey, message)
}

// NewRoomEventMessage captures room as it is now.
func NewRoomEventMessage(lobbyID, event string, room *domain.Room) (contracts.AmqpMessage, error) {
	roomEventJSON, err := json.Marshal(contracts.RoomEventData{
		Room: contracts.NewRoomView(room),
	})
	if err != nil {
		return contracts.AmqpMessage{}, err
	}

	return contracts.AmqpMessage{
		LobbyID:    lobbyID,
		Event:      event,
		OccurredAt: time.Now().UTC(),
		Data:       roomEventJSON,
	}, nil
}

func (p *LobbyPublisher) logFailure(event, routingKey, roomID string, err error) {
	p.logger.Error(logging.RabbitMQ, logging.Publish, "failed to publish lobby event", map[logging.ExtraKey]any{
		logging.Event:        event,
		logging.RoutingKey:   routingKey,
		logging.RoomID:       roomID,
		logging.ErrorMessage: err.Error(),
	})
}
