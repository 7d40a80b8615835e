package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/license-portal/internal/core/events"
	"github.com/frahmantamala/license-portal/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish diagnostic events and list the event types the portal emits`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event on the bus, forwarding it to NATS when nats.url is configured`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var listEventsCmd = &cobra.Command{
	Use:   "types",
	Short: "List event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range events.Types() {
			fmt.Println(t)
		}
	},
}

var eventData string

func publishTestEvent(eventType string) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	eventBus := events.NewEventBus(lg)
	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	if cfg.NATS.URL != "" {
		conn, err := events.Connect(cfg.NATS.URL, "license-portal-cli", lg)
		if err != nil {
			lg.Error("failed to connect to nats", "error", err)
			return
		}
		defer func() { _ = conn.Drain() }()
		events.NewNATSBridge(conn, cfg.NATS.SubjectPrefix, lg).Register(eventBus)
	}

	testEvent := events.NewEvent(eventType, map[string]interface{}{
		"message": eventData,
		"source":  "cli-command",
	})

	lg.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)

	if err := eventBus.PublishSync(context.Background(), testEvent); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}
	lg.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)
	eventCmd.AddCommand(listEventsCmd)

	rootCmd.AddCommand(eventCmd)
}
