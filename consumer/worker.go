package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"snack-gateway/events"
	"snack-gateway/rabbitmq"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Worker feeds order events from the queue into the tracker. Each worker owns
// one channel with a prefetch of one.
type Worker struct {
	workerID int
	channel  *amqp.Channel
	queue    string
	tracker  *ActivityTracker
	logger   *zap.Logger
}

func NewWorker(workerID int, conn *amqp.Connection, queue string, tracker *ActivityTracker, logger *zap.Logger) (*Worker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("worker %d: failed to open channel: %w", workerID, err)
	}
	if err := rabbitmq.DeclareQueue(ch, queue); err != nil {
		ch.Close()
		return nil, fmt.Errorf("worker %d: %w", workerID, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("worker %d: failed to set prefetch: %w", workerID, err)
	}

	return &Worker{
		workerID: workerID,
		channel:  ch,
		queue:    queue,
		tracker:  tracker,
		logger:   logger.Named("worker").With(zap.Int("worker_id", workerID)),
	}, nil
}

func (w *Worker) tag() string {
	return fmt.Sprintf("snack-gateway-%d", w.workerID)
}

// Run consumes until ctx is done or the connection closes. Unacked deliveries
// go back to the queue when the channel closes.
func (w *Worker) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer w.channel.Close()

	deliveries, err := w.channel.ConsumeWithContext(ctx, w.queue, w.tag(),
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil)
	if err != nil {
		w.logger.Error("failed to register consumer", zap.Error(err))
		return
	}

	w.logger.Info("worker consuming", zap.String("queue", w.queue))
	for d := range deliveries {
		w.handle(d)
	}
	w.logger.Info("worker stopped")
}

func (w *Worker) handle(d amqp.Delivery) {
	var event events.OrderEvent
	if err := json.Unmarshal(d.Body, &event); err != nil || event.Type == "" {
		w.logger.Warn("discarding malformed event", zap.String("message_id", d.MessageId), zap.Error(err))
		if err := d.Nack(false, false); err != nil {
			w.logger.Error("nack failed", zap.Error(err))
		}
		return
	}

	fresh := w.tracker.Record(event)
	if err := d.Ack(false); err != nil {
		w.logger.Error("ack failed", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}
	w.logger.Debug("event handled",
		zap.String("event_id", event.EventID),
		zap.String("type", string(event.Type)),
		zap.Bool("redelivered", !fresh))
}

// StartPool starts n workers on conn. They stop when ctx is cancelled or the
// connection closes; the WaitGroup tracks them.
func StartPool(ctx context.Context, conn *amqp.Connection, n int, queue string, tracker *ActivityTracker, logger *zap.Logger) (*sync.WaitGroup, error) {
	wg := &sync.WaitGroup{}
	for i := 1; i <= n; i++ {
		worker, err := NewWorker(i, conn, queue, tracker, logger)
		if err != nil {
			return wg, err
		}
		wg.Add(1)
		go worker.Run(ctx, wg)
	}
	logger.Info("consumer workers started", zap.Int("workers", n), zap.String("queue", queue))
	return wg, nil
}
