package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("channel pool is closed")

// ChannelPool shares one connection between publishers. Every pooled channel
// is in confirm mode and has the order queue declared.
type ChannelPool struct {
	conn   *amqp.Connection
	idle   chan *amqp.Channel
	queue  string
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

func NewChannelPool(rabbitmqURL, queue string, size int, logger *zap.Logger) (*ChannelPool, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	p := &ChannelPool{
		conn:   conn,
		idle:   make(chan *amqp.Channel, size),
		queue:  queue,
		logger: logger.Named("rabbitmq"),
	}
	for i := range size {
		ch, err := p.open()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to open pooled channel %d: %w", i, err)
		}
		p.idle <- ch
	}

	p.logger.Info("channel pool ready", zap.Int("size", size), zap.String("queue", queue))
	return p, nil
}

// DeclareQueue declares the durable order queue. Publishers and consumers both
// call it, so either side may start first.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

func (p *ChannelPool) open() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := DeclareQueue(ch, p.queue); err != nil {
		ch.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	return ch, nil
}

// Connection is shared with the consumer workers, which open their own channels.
func (p *ChannelPool) Connection() *amqp.Connection {
	return p.conn
}

func (p *ChannelPool) QueueName() string {
	return p.queue
}

// Acquire blocks until a channel is idle or ctx is done. A channel the broker
// closed while it sat idle is reopened.
func (p *ChannelPool) Acquire(ctx context.Context) (*amqp.Channel, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("no channel available: %w", ctx.Err())
	case ch, ok := <-p.idle:
		switch {
		case !ok:
			return nil, ErrPoolClosed
		case ch.IsClosed():
			p.logger.Debug("reopening closed channel")
			return p.open()
		}
		return ch, nil
	}
}

// Release hands ch back. Closed channels are dropped and Acquire reopens them later.
func (p *ChannelPool) Release(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		ch.Close()
		return
	}
	select {
	case p.idle <- ch:
	default:
		ch.Close()
	}
}

// Close shuts every idle channel and then the connection, which also stops
// consumers using it.
func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.idle)
	for ch := range p.idle {
		ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.logger.Info("channel pool closed")
}
