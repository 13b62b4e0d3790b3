package kafka

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	"github.com/segmentio/kafka-go"
)

// messageSink is the part of Producer the publisher needs.
type messageSink interface {
	Publish(topic string, key, value []byte, headers ...kafka.Header) error
}

var _ ledger.EventSink = (*Publisher)(nil)

// Publisher turns ledger envelopes into Kafka messages keyed by user id.
type Publisher struct {
	Sink messageSink
}

func NewPublisher(p *Producer) *Publisher { return &Publisher{Sink: p} }

func (p *Publisher) Publish(_ context.Context, topic string, env ledger.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.Sink.Publish(topic, ledger.PartitionKey(env.UserID), b,
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}
