package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/courseloop/courseloop/internal/core/events"
	"github.com/courseloop/courseloop/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage events: publish test events, monitor event bus, inspect handlers`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a purchase.completed or content.accessed event to the bus for debugging handlers`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var (
	eventUserID   int64
	eventItemID   string
	eventItemType string
)

func publishTestEvent(eventType string) {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	var testEvent events.Event
	switch eventType {
	case events.EventTypePurchaseCompleted:
		testEvent = events.NewPurchaseCompletedEvent(0, eventUserID, eventItemType, eventItemID, 0, "order_test", "pay_test")
	case events.EventTypeContentAccessed:
		testEvent = events.NewContentAccessedEvent(eventUserID, eventItemType, eventItemID)
	default:
		testEvent = events.BaseEvent{
			ID:        fmt.Sprintf("test-%d", time.Now().Unix()),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"source": "cli-command",
			},
		}
	}

	logger.Info("publishing test event", "event_type", eventType, "event_id", testEvent.EventID())

	ctx := context.Background()
	if err := eventBus.Publish(ctx, testEvent); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}

	time.Sleep(100 * time.Millisecond)
	logger.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventUserID, "user-id", 1, "User id carried on the event")
	publishEventCmd.Flags().StringVar(&eventItemID, "item-id", "item-test", "Item id carried on the event")
	publishEventCmd.Flags().StringVar(&eventItemType, "item-type", "course", "Item type carried on the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
