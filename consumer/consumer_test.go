package consumer

import (
	"encoding/json"
	"sync"
	"testing"

	"snack-gateway/events"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAcknowledger struct {
	acked    int
	nacked   int
	requeued bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.nacked++
	a.requeued = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func submitted(orderID string, amount int64, items ...events.Item) events.OrderEvent {
	event := events.NewOrderEvent(events.OrderSubmitted, orderID)
	event.TotalAmount = amount
	event.Items = items
	return event
}

func TestTrackerCountsLifecycle(t *testing.T) {
	tracker := NewActivityTracker(zap.NewNop())

	tracker.Record(submitted("1", 8500, events.Item{ItemID: "101", Quantity: 1}, events.Item{ItemID: "102", Quantity: 2}))
	tracker.Record(submitted("2", 6000, events.Item{ItemID: "102", Quantity: 1}))
	tracker.Record(submitted("3", 4200))

	approved := events.NewOrderEvent(events.OrderApproved, "1")
	approved.TotalAmount = 8500
	tracker.Record(approved)
	tracker.Record(events.NewOrderEvent(events.OrderRejected, "2"))

	stats := tracker.Snapshot()
	assert.Equal(t, int64(3), stats.Submitted)
	assert.Equal(t, int64(1), stats.Approved)
	assert.Equal(t, int64(1), stats.Rejected)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(18700), stats.SubmittedValue)
	assert.Equal(t, int64(8500), stats.ApprovedValue)
	assert.Equal(t, map[string]int64{"101": 1, "102": 3}, stats.ItemQuantities)
}

func TestTrackerIgnoresRedelivery(t *testing.T) {
	tracker := NewActivityTracker(zap.NewNop())
	event := submitted("1", 8500)

	assert.True(t, tracker.Record(event))
	assert.False(t, tracker.Record(event))
	assert.Equal(t, int64(1), tracker.Snapshot().Submitted)
}

func TestTrackerIsSafeForConcurrentWorkers(t *testing.T) {
	tracker := NewActivityTracker(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Record(submitted("x", 100, events.Item{ItemID: "101", Quantity: 1}))
		}()
	}
	wg.Wait()

	stats := tracker.Snapshot()
	assert.Equal(t, int64(50), stats.Submitted)
	assert.Equal(t, int64(50), stats.ItemQuantities["101"])
}

func TestWorkerAcksValidEvent(t *testing.T) {
	tracker := NewActivityTracker(zap.NewNop())
	worker := &Worker{workerID: 1, tracker: tracker, logger: zap.NewNop()}

	body, err := json.Marshal(submitted("7", 3000))
	require.NoError(t, err)
	ack := &fakeAcknowledger{}
	worker.handle(amqp.Delivery{Acknowledger: ack, Body: body})

	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, int64(1), tracker.Snapshot().Submitted)
}

func TestWorkerDropsMalformedEvent(t *testing.T) {
	tracker := NewActivityTracker(zap.NewNop())
	worker := &Worker{workerID: 1, tracker: tracker, logger: zap.NewNop()}

	for _, body := range []string{`not json`, `{"order_id":"1"}`} {
		ack := &fakeAcknowledger{}
		worker.handle(amqp.Delivery{Acknowledger: ack, Body: []byte(body)})
		assert.Equal(t, 1, ack.nacked)
		assert.False(t, ack.requeued)
		assert.Zero(t, ack.acked)
	}
	assert.Zero(t, tracker.Snapshot().Submitted)
}
