package download

import (
	"context"
	"fmt"
	"log/slog"

	accessDatamodel "github.com/courseloop/courseloop/internal/core/datamodel/access"
	"github.com/courseloop/courseloop/internal/core/events"
)

// EventHandler persists access audit rows off the event bus. Inserts run on
// the bus's goroutines; a failure is logged by the bus and never reaches the
// download response.
type EventHandler struct {
	repo   AccessRepositoryAPI
	logger *slog.Logger
}

func NewEventHandler(repo AccessRepositoryAPI, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *EventHandler) HandleContentAccessed(ctx context.Context, event events.Event) error {
	accessEvent, ok := event.(*events.ContentAccessedEvent)
	if !ok {
		h.logger.Error("invalid event type for content accessed handler", "event_type", event.EventType())
		return fmt.Errorf("expected ContentAccessedEvent, got %T", event)
	}

	record := &accessDatamodel.Event{
		UserID:   accessEvent.UserID,
		ItemType: accessEvent.ItemType,
		ItemID:   accessEvent.ItemID,
	}

	if err := h.repo.Create(record); err != nil {
		h.logger.Error("failed to persist access event",
			"error", err,
			"user_id", accessEvent.UserID,
			"item_id", accessEvent.ItemID,
			"event_id", accessEvent.EventID())
		return fmt.Errorf("access event insert failed for item %s: %w", accessEvent.ItemID, err)
	}

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeContentAccessed, h.HandleContentAccessed)

	h.logger.Info("download event handlers registered",
		"handlers", []string{events.EventTypeContentAccessed})
}
