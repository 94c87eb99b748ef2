package consumer

import (
	"context"
	"sync"

	"snack-gateway/events"

	"go.uber.org/zap"
)

// Stats is a point-in-time copy of the tracker's counters.
type Stats struct {
	Submitted      int64            `json:"submitted"`
	Approved       int64            `json:"approved"`
	Rejected       int64            `json:"rejected"`
	Cancelled      int64            `json:"cancelled"`
	Pending        int64            `json:"pending"`
	SubmittedValue int64            `json:"submittedValue"`
	ApprovedValue  int64            `json:"approvedValue"`
	ItemQuantities map[string]int64 `json:"itemQuantities"`
}

// ActivityTracker counts order lifecycle events in a thread-safe manner.
type ActivityTracker struct {
	mu             sync.Mutex
	seen           map[string]struct{}
	counts         map[events.Type]int64
	submittedValue int64
	approvedValue  int64
	itemQuantities map[string]int64
	logger         *zap.Logger
}

func NewActivityTracker(logger *zap.Logger) *ActivityTracker {
	return &ActivityTracker{
		seen:           make(map[string]struct{}),
		counts:         make(map[events.Type]int64),
		itemQuantities: make(map[string]int64),
		logger:         logger.Named("activity"),
	}
}

// Record applies one event. Redelivered events with a known id are ignored.
func (t *ActivityTracker) Record(event events.OrderEvent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if event.EventID != "" {
		if _, dup := t.seen[event.EventID]; dup {
			return false
		}
		t.seen[event.EventID] = struct{}{}
	}

	t.counts[event.Type]++
	switch event.Type {
	case events.OrderSubmitted:
		t.submittedValue += event.TotalAmount
		for _, item := range event.Items {
			t.itemQuantities[item.ItemID] += int64(item.Quantity)
		}
	case events.OrderApproved:
		t.approvedValue += event.TotalAmount
	}

	t.logger.Debug("recorded order event",
		zap.String("type", string(event.Type)),
		zap.String("order_id", event.OrderID),
		zap.Int64("count", t.counts[event.Type]))
	return true
}

// PublishOrderEvent lets the tracker stand in for a broker publisher.
func (t *ActivityTracker) PublishOrderEvent(ctx context.Context, event events.OrderEvent) error {
	t.Record(event)
	return nil
}

func (t *ActivityTracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := Stats{
		Submitted:      t.counts[events.OrderSubmitted],
		Approved:       t.counts[events.OrderApproved],
		Rejected:       t.counts[events.OrderRejected],
		Cancelled:      t.counts[events.OrderCancelled],
		SubmittedValue: t.submittedValue,
		ApprovedValue:  t.approvedValue,
		ItemQuantities: make(map[string]int64, len(t.itemQuantities)),
	}
	stats.Pending = max(0, stats.Submitted-stats.Approved-stats.Rejected-stats.Cancelled)
	for id, q := range t.itemQuantities {
		stats.ItemQuantities[id] = q
	}
	return stats
}

// LogSummary writes the final counters when shutting down.
func (t *ActivityTracker) LogSummary() {
	stats := t.Snapshot()
	t.logger.Info("order activity summary",
		zap.Int64("submitted", stats.Submitted),
		zap.Int64("approved", stats.Approved),
		zap.Int64("rejected", stats.Rejected),
		zap.Int64("cancelled", stats.Cancelled),
		zap.Int64("submitted_value", stats.SubmittedValue),
		zap.Int64("approved_value", stats.ApprovedValue))
}
