package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"snack-gateway/events"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

var ErrNotConfirmed = errors.New("broker did not confirm the event")

// Publisher sends order lifecycle events to the order queue and waits for the
// broker to confirm each one.
type Publisher struct {
	pool   *ChannelPool
	queue  string
	logger *zap.Logger
}

func NewPublisher(pool *ChannelPool, queue string, logger *zap.Logger) *Publisher {
	return &Publisher{pool: pool, queue: queue, logger: logger.Named("publisher")}
}

func publishing(event events.OrderEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.EventID,
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

func (p *Publisher) PublishOrderEvent(ctx context.Context, event events.OrderEvent) error {
	msg, err := publishing(event)
	if err != nil {
		return err
	}

	// Detached from the request so a finished response does not abort the publish.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	ch, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.pool.Release(ch)

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", p.queue, false, false, msg)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed waiting for confirm of %s: %w", event.Type, err)
	}
	if !acked {
		return fmt.Errorf("%w: %s", ErrNotConfirmed, event.EventID)
	}

	p.logger.Debug("order event confirmed",
		zap.String("event_id", event.EventID),
		zap.String("type", string(event.Type)),
		zap.String("order_id", event.OrderID))
	return nil
}
