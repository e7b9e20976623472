package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/gymlog/internal/events"
)

// KafkaCompletionPublisher writes ImportCompleted events to a results topic.
type KafkaCompletionPublisher struct {
	writer *kafka.Writer
}

// NewKafkaCompletionPublisher constructs a publisher for the given brokers
// and topic.
func NewKafkaCompletionPublisher(brokers []string, topic string) *KafkaCompletionPublisher {
	return &KafkaCompletionPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish implements CompletionPublisher.
func (p *KafkaCompletionPublisher) Publish(ctx context.Context, evt events.ImportCompleted) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(evt.RequestID),
		Value:   payload,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(events.TypeImportCompleted)}},
	})
}

// Close releases the underlying writer.
func (p *KafkaCompletionPublisher) Close() error {
	return p.writer.Close()
}
