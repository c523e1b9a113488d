package cause

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/donation-management/internal/blobstore"
	"github.com/frahmantamala/donation-management/internal/core/events"
)

// EventHandler removes the stored images of deleted causes.
type EventHandler struct {
	blobs  blobstore.Store
	logger *slog.Logger
}

func NewEventHandler(blobs blobstore.Store, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{blobs: blobs, logger: logger}
}

// HandleCauseDeleted issues one batched delete for every image URL of the cause.
func (h *EventHandler) HandleCauseDeleted(ctx context.Context, event events.Event) error {
	deleted, ok := event.(*events.CauseDeletedEvent)
	if !ok {
		h.logger.Error("invalid event type for cause deleted handler", "event_type", event.EventType())
		return fmt.Errorf("expected CauseDeletedEvent, got %T", event)
	}
	if len(deleted.ImageURLs) == 0 {
		return nil
	}

	if err := h.blobs.Delete(ctx, deleted.ImageURLs); err != nil {
		h.logger.Error("failed to delete cause images",
			"error", err,
			"cause_id", deleted.CauseID,
			"urls", deleted.ImageURLs,
			"event_id", deleted.EventID())
		return fmt.Errorf("delete images of cause %d: %w", deleted.CauseID, err)
	}

	h.logger.Info("cause images deleted",
		"cause_id", deleted.CauseID,
		"count", len(deleted.ImageURLs),
		"event_id", deleted.EventID())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeCauseDeleted, h.HandleCauseDeleted)

	h.logger.Info("cause event handlers registered",
		"handlers", []string{events.EventTypeCauseDeleted})
}
