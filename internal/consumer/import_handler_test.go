package consumer

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/gymlog/internal/domain"
	"example.com/gymlog/internal/events"
	"example.com/gymlog/internal/importer"
	"example.com/gymlog/internal/store"
)

type stubPublisher struct {
	published []events.ImportCompleted
	err       error
}

func (p *stubPublisher) Publish(ctx context.Context, evt events.ImportCompleted) error {
	p.published = append(p.published, evt)
	return p.err
}

func newImportHandler(t *testing.T, opts ...ImportOption) (Handler, *domain.Service) {
	t.Helper()
	service := domain.NewService(store.NewInMemoryRepository())
	require.NoError(t, service.SeedLocations(context.Background()))
	imp := importer.New(service, importer.WithLogger(log.New(io.Discard, "", 0)))
	return NewImportHandler(imp, "me", "", opts...), service
}

func TestImportHandlerIngestsRequest(t *testing.T) {
	handler, service := newImportHandler(t)

	msg := Message{
		Topic:   "gymlog_import_requests",
		Payload: []byte(`{"request_id":"r1","user_id":"alice","text":"Jan 5\nBench Press\nSquats","requested_at":"2024-03-01T12:00:00Z"}`),
	}
	require.NoError(t, handler.Handle(context.Background(), msg))

	views, err := service.ListSessionViews(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "2024-01-05", views[0].SessionDate)
}

func TestImportHandlerDefaultsUserAndTimestamp(t *testing.T) {
	handler, service := newImportHandler(t)

	msg := Message{
		Payload:   []byte(`{"text":"Jan 5\nBench Press"}`),
		Timestamp: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, handler.Handle(context.Background(), msg))

	views, err := service.ListSessionViews(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "2024-01-05", views[0].SessionDate)
}

func TestImportHandlerPublishesCompletion(t *testing.T) {
	publisher := &stubPublisher{}
	handler, _ := newImportHandler(t, WithCompletionPublisher(publisher))

	msg := Message{
		Payload: []byte(`{"request_id":"r1","user_id":"alice","text":"Jan 5\nBench Press\nJan 7\nSquats","requested_at":"2024-03-01T12:00:00Z"}`),
	}
	require.NoError(t, handler.Handle(context.Background(), msg))

	require.Len(t, publisher.published, 1)
	completed := publisher.published[0]
	require.Equal(t, "r1", completed.RequestID)
	require.Equal(t, "alice", completed.UserID)
	require.Equal(t, 2, completed.Imported)
	require.False(t, completed.CompletedAt.IsZero())
}

func TestImportHandlerSurfacesPublishFailure(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("broker down")}
	handler, service := newImportHandler(t, WithCompletionPublisher(publisher))

	msg := Message{
		Payload: []byte(`{"text":"Jan 5\nBench Press","requested_at":"2024-03-01T12:00:00Z"}`),
	}
	require.Error(t, handler.Handle(context.Background(), msg))

	// The import itself still landed before publishing failed.
	views, err := service.ListSessionViews(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, views, 1)
}

func TestImportHandlerRejectsEmptyText(t *testing.T) {
	publisher := &stubPublisher{}
	handler, _ := newImportHandler(t, WithCompletionPublisher(publisher))

	msg := Message{Payload: []byte(`{"text":"   "}`)}
	require.Error(t, handler.Handle(context.Background(), msg))
	require.Empty(t, publisher.published)
}
