package consumer

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	messages  []kafka.Message
	position  int
	committed []kafka.Message
}

func (s *stubReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if s.position >= len(s.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := s.messages[s.position]
	s.position++
	return msg, nil
}

func (s *stubReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	s.committed = append(s.committed, msgs...)
	return nil
}

func (s *stubReader) Close() error { return nil }

type recordingHandler struct {
	seen []Message
	err  error
}

func (h *recordingHandler) Handle(ctx context.Context, msg Message) error {
	h.seen = append(h.seen, msg)
	return h.err
}

func TestProcessorDecodesAndCommits(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		{
			Topic:     "gymlog_import_requests",
			Partition: 2,
			Offset:    7,
			Key:       []byte("me"),
			Value:     []byte(`{"text":"Jan 5\nBench"}`),
			Headers:   []kafka.Header{{Key: "event_type", Value: []byte("gymlog.import_requested")}},
		},
	}}
	handler := &recordingHandler{}
	proc := NewProcessor(reader, handler, WithLogger(log.New(io.Discard, "", 0)))

	err := proc.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, handler.seen, 1)
	require.Equal(t, "gymlog_import_requests", handler.seen[0].Topic)
	require.Equal(t, int64(7), handler.seen[0].Offset)
	require.Equal(t, "gymlog.import_requested", handler.seen[0].Headers["event_type"])
	require.JSONEq(t, `{"text":"Jan 5\nBench"}`, string(handler.seen[0].Payload))
	require.Len(t, reader.committed, 1)
}

func TestProcessorStripsSchemaRegistryEnvelope(t *testing.T) {
	value := append([]byte{0x00, 0x00, 0x00, 0x00, 0x2a}, []byte(`{"text":"Jan 5\nBench"}`)...)
	reader := &stubReader{messages: []kafka.Message{
		{Topic: "gymlog_import_requests", Value: value},
	}}
	handler := &recordingHandler{}
	proc := NewProcessor(reader, handler, WithLogger(log.New(io.Discard, "", 0)))

	err := proc.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, handler.seen, 1)
	require.JSONEq(t, `{"text":"Jan 5\nBench"}`, string(handler.seen[0].Payload))
}

func TestProcessorSkipsForeignEventTypes(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		{
			Topic:   "gymlog_import_requests",
			Value:   []byte(`{}`),
			Headers: []kafka.Header{{Key: "event_type", Value: []byte("gymlog.import_completed")}},
		},
		{
			Topic:   "gymlog_import_requests",
			Value:   []byte(`{"text":"Jan 5\nBench"}`),
			Headers: []kafka.Header{{Key: "event_type", Value: []byte("gymlog.import_requested")}},
		},
		{
			// No event_type header still reaches the handler.
			Topic: "gymlog_import_requests",
			Value: []byte(`{"text":"Jan 7\nSquats"}`),
		},
	}}
	handler := &recordingHandler{}
	proc := NewProcessor(reader, handler,
		WithEventTypes("gymlog.import_requested"),
		WithLogger(log.New(io.Discard, "", 0)))

	err := proc.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, handler.seen, 2)
	require.Equal(t, "gymlog.import_requested", handler.seen[0].Headers["event_type"])
	// Skipped messages are still committed so the group offset advances.
	require.Len(t, reader.committed, 3)
}

func TestProcessorCommitsOnHandlerError(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		{Topic: "gymlog_import_requests", Value: []byte(`{}`)},
	}}
	handler := &recordingHandler{err: errors.New("boom")}
	proc := NewProcessor(reader, handler, WithLogger(log.New(io.Discard, "", 0)))

	err := proc.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, reader.committed, 1)
}

func TestProcessorStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := NewProcessor(&stubReader{}, &recordingHandler{}, WithLogger(log.New(io.Discard, "", 0)))
	err := proc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
