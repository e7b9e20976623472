package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/gymlog/internal/events"
	"example.com/gymlog/internal/importer"
)

// CompletionPublisher reports finished import requests back to the bus.
type CompletionPublisher interface {
	Publish(ctx context.Context, evt events.ImportCompleted) error
}

// ImportOption configures an ImportHandler.
type ImportOption func(*ImportHandler)

// WithCompletionPublisher makes the handler emit an ImportCompleted event
// after each successful import.
func WithCompletionPublisher(p CompletionPublisher) ImportOption {
	return func(h *ImportHandler) { h.publisher = p }
}

// ImportHandler feeds import-request events through the ingestion pipeline.
// The processor filters event types and strips payload envelopes before
// messages reach it.
type ImportHandler struct {
	importer      *importer.Importer
	defaultUserID string
	minDate       string
	publisher     CompletionPublisher
}

// NewImportHandler constructs an import handler.
func NewImportHandler(imp *importer.Importer, defaultUserID, minDate string, opts ...ImportOption) Handler {
	h := &ImportHandler{importer: imp, defaultUserID: defaultUserID, minDate: minDate}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle ingests one import request and, when a publisher is configured,
// reports the outcome.
func (h *ImportHandler) Handle(ctx context.Context, msg Message) error {
	var evt events.ImportRequested
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return err
	}

	if strings.TrimSpace(evt.Text) == "" {
		return errors.New("import request carries no log text")
	}

	userID := evt.UserID
	if userID == "" {
		userID = h.defaultUserID
	}
	minDate := evt.MinDate
	if minDate == "" {
		minDate = h.minDate
	}
	now := evt.RequestedAt
	if now.IsZero() {
		now = msg.Timestamp
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	imported, err := h.importer.ImportNormalized(ctx, userID, evt.Text, minDate, now)
	if err != nil {
		return err
	}

	if h.publisher != nil {
		completed := events.ImportCompleted{
			RequestID:   evt.RequestID,
			UserID:      userID,
			Imported:    imported,
			CompletedAt: time.Now().UTC(),
		}
		if err := h.publisher.Publish(ctx, completed); err != nil {
			return fmt.Errorf("publish completion: %w", err)
		}
	}
	return nil
}
