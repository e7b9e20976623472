// Package consumer streams Kafka import requests into the gymlog pipeline.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader describes the kafka.Reader functions the processor interacts with.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler processes decoded Kafka messages.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message represents a decoded Kafka record. Payload carries the record value
// with any Confluent Schema Registry envelope already stripped.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Payload   json.RawMessage
	Timestamp time.Time
	Headers   map[string]string
}

// Option configures processor behaviour.
type Option func(*Processor)

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithEventTypes restricts the processor to records whose event_type header
// is one of the given values. Records carrying a different event_type are
// committed without reaching the handler; records without the header still
// pass through.
func WithEventTypes(types ...string) Option {
	return func(p *Processor) {
		p.eventTypes = make(map[string]struct{}, len(types))
		for _, t := range types {
			p.eventTypes[t] = struct{}{}
		}
	}
}

// Processor coordinates the consumer loop: fetch, decode, filter by event
// type, hand off, commit.
type Processor struct {
	reader     Reader
	handler    Handler
	eventTypes map[string]struct{}
	logger     *log.Logger
}

// NewProcessor constructs a processor from a reader/handler pair.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{reader: reader, handler: handler, logger: log.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes messages until ctx cancellation. Handler failures are logged
// and the message is committed anyway; import requests are idempotent, so a
// stuck message is worse than a skipped one.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.logger.Printf("fetch error: %v", err)
			continue
		}

		decoded := decode(msg)
		if p.skip(decoded) {
			p.logger.Printf("skipped (topic=%s offset=%d event_type=%s)", msg.Topic, msg.Offset, decoded.Headers["event_type"])
			p.commit(ctx, msg)
			continue
		}

		if err := p.handler.Handle(ctx, decoded); err != nil {
			p.logger.Printf("handler error (topic=%s offset=%d): %v", msg.Topic, msg.Offset, err)
		} else {
			p.logger.Printf("processed (topic=%s offset=%d)", msg.Topic, msg.Offset)
		}

		p.commit(ctx, msg)
	}
}

func (p *Processor) commit(ctx context.Context, msg kafka.Message) {
	if err := p.reader.CommitMessages(ctx, msg); err != nil {
		p.logger.Printf("commit error: %v", err)
	}
}

func (p *Processor) skip(msg Message) bool {
	if len(p.eventTypes) == 0 {
		return false
	}
	eventType, ok := msg.Headers["event_type"]
	if !ok {
		return false
	}
	_, accepted := p.eventTypes[eventType]
	return !accepted
}

func decode(msg kafka.Message) Message {
	decoded := Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Payload:   append(json.RawMessage{}, stripSchemaEnvelope(msg.Value)...),
		Timestamp: msg.Time,
		Headers:   make(map[string]string, len(msg.Headers)),
	}
	for _, header := range msg.Headers {
		decoded.Headers[header.Key] = string(header.Value)
	}
	return decoded
}

// stripSchemaEnvelope removes the Confluent wire format prefix (magic byte
// plus 4-byte schema id) when present.
func stripSchemaEnvelope(value []byte) []byte {
	if len(value) >= 5 && value[0] == 0x00 {
		return value[5:]
	}
	return value
}
