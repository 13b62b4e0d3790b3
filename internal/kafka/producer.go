package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	// ErrProducerFull is returned when the inbox cannot take another message.
	ErrProducerFull = errors.New("kafka: producer inbox full")
	// ErrProducerClosed is returned by Publish after Close.
	ErrProducerClosed = errors.New("kafka: producer closed")
)

// Producer buffers messages in an inbox drained by one writer goroutine.
// The topic is set per message.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	logger  *slog.Logger

	mu     sync.RWMutex // guards closed and sends on inbox
	closed bool
}

func NewProducer(brokers []string, buf int, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		logger:  logger,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

// drain flushes whatever is still buffered, then closes the writer.
func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				_ = p.w.Close()
				return
			}
			p.write(m)
		default:
			_ = p.w.Close()
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.logger.Error("kafka write", "topic", m.Topic, "key", string(m.Key), "error", err)
	}
}

// Publish enqueues a message without blocking.
func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}:
		return nil
	default:
		return ErrProducerFull
	}
}

// Close the inbox so the goroutine flushes the remaining messages and exits.
// Calling it again is a no-op.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the goroutine is done.
func (p *Producer) WaitClosed() { <-p.closeCh }
