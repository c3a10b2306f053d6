package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hilthontt/lobby/internal/infrastructure/contracts"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
	"github.com/hilthontt/lobby/internal/infrastructure/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
)

type LobbyConsumer struct {
	rabbitmq *messaging.RabbitMQ
	queue    string
	logger   logging.Logger
}

func NewLobbyConsumer(rabbitmq *messaging.RabbitMQ, queue string, logger logging.Logger) *LobbyConsumer {
	return &LobbyConsumer{
		rabbitmq: rabbitmq,
		queue:    queue,
		logger:   logger,
	}
}

func (c *LobbyConsumer) Listen(ctx context.Context) error {
	if err := c.rabbitmq.DeclareQueue(c.queue, messaging.LobbyRoutingPattern); err != nil {
		return err
	}

	return c.rabbitmq.ConsumeMessages(ctx, c.queue, func(ctx context.Context, msg amqp.Delivery) error {
		return c.handle(msg.RoutingKey, msg.Body)
	})
}

// handle writes the audit line for one delivery.
func (c *LobbyConsumer) handle(routingKey string, body []byte) error {
	var message contracts.AmqpMessage
	if err := json.Unmarshal(body, &message); err != nil {
		c.logger.Warn(logging.RabbitMQ, logging.Consume, "failed to unmarshal message", map[logging.ExtraKey]any{
			logging.RoutingKey:   routingKey,
			logging.ErrorMessage: err.Error(),
		})
		return fmt.Errorf("decode message: %w", err)
	}

	var payload contracts.RoomEventData
	if err := json.Unmarshal(message.Data, &payload); err != nil {
		c.logger.Warn(logging.RabbitMQ, logging.Consume, "failed to unmarshal room event", map[logging.ExtraKey]any{
			logging.RoutingKey:   routingKey,
			logging.ErrorMessage: err.Error(),
		})
		return fmt.Errorf("decode room event: %w", err)
	}

	c.logger.Info(logging.RabbitMQ, logging.Consume, "lobby event received", map[logging.ExtraKey]any{
		logging.RoutingKey: routingKey,
		logging.Event:      message.Event,
		logging.LobbyID:    message.LobbyID,
		logging.RoomID:     payload.Room.ID,
	})

	return nil
}
