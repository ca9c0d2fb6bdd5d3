package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/cart"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch         channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

func NewPublisher(conn *amqp.Connection, exchange, routingKey string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := newPublisher(ch, exchange, routingKey, logger)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch channel, exchange, routingKey string, logger *zap.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = EventsExchange
	}
	if routingKey == "" {
		routingKey = CartCheckedOutRoutingKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// publishing to an undeclared exchange closes the channel
	if err := declareEventsExchange(ch, exchange); err != nil {
		return nil, fmt.Errorf("declare %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange, routingKey: routingKey, logger: logger}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishCartCheckedOut(ctx context.Context, env EventEnvelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", env.EventName, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    env.EventID,
			Timestamp:    env.OccurredAt,
			Body:         body,
		},
	)
}

// CheckoutHook publishes every committed checkout of the given session.
// Failures are logged; the shopper's checkout already succeeded.
func (p *Publisher) CheckoutHook(sessionID string) cart.CheckoutHook {
	return func(ctx context.Context, order cart.Order, state *cart.State) {
		env := BuildCartCheckedOutEvent(order, EnvelopeOptions{
			SessionID: sessionID,
			Sequence:  int64(len(state.Orders)),
		})
		if err := p.PublishCartCheckedOut(ctx, env); err != nil {
			p.logger.Error("publish cart checked out",
				zap.String("session_id", sessionID),
				zap.Int64("order_id", order.ID),
				zap.Error(err))
			return
		}
		p.logger.Info("cart checked out published",
			zap.String("session_id", sessionID),
			zap.Int64("order_id", order.ID),
			zap.String("event_id", env.EventID))
	}
}
