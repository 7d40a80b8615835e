package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/license-portal/internal/core/events"
	"github.com/frahmantamala/license-portal/internal/license"
	"github.com/frahmantamala/license-portal/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers such as the license expiry reconciler and the event listener.`,
}

var expiryWorkerCmd = &cobra.Command{
	Use:   "expiry",
	Short: "Start the license expiry reconciler",
	Long:  `Periodically mark active licenses whose expiry date has passed as expired`,
	Run: func(cmd *cobra.Command, args []string) {
		startExpiryWorker()
	},
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Log every portal event published on NATS`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	expirySchedule string
	expiryOnce     bool
)

func startExpiryWorker() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	lg := deps.Logger
	svcs := buildServices(deps)

	schedule := getStringFlag(expirySchedule, deps.Config.Worker.ExpirySweepSchedule)
	reconciler, err := license.NewReconciler(svcs.License, schedule, lg)
	if err != nil {
		lg.Error("failed to create reconciler", "error", err)
		return
	}

	if expiryOnce {
		n := reconciler.RunOnce(context.Background())
		lg.Info("single expiry sweep complete", "expired", n)
		return
	}

	// one sweep at startup so a restart never waits a full interval
	reconciler.RunOnce(context.Background())
	reconciler.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("expiry worker is running. Press Ctrl+C to stop.", "schedule", schedule)

	sig := <-sigChan
	lg.Info("received signal, shutting down expiry worker", "signal", sig)
	reconciler.Stop()
}

func startEventWorker() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	if cfg.NATS.URL == "" {
		lg.Error("nats.url is required for the event worker")
		return
	}
	conn, err := events.Connect(cfg.NATS.URL, "license-portal-events", lg)
	if err != nil {
		lg.Error("failed to connect to nats", "error", err)
		return
	}
	defer func() { _ = conn.Drain() }()

	bridge := events.NewNATSBridge(conn, cfg.NATS.SubjectPrefix, lg)
	sub, err := bridge.Listen(conn, func(ctx context.Context, event events.Event) error {
		lg.Info("received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})
	if err != nil {
		lg.Error("failed to subscribe", "error", err)
		return
	}
	defer func() { _ = sub.Unsubscribe() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("event worker is running. Press Ctrl+C to stop.", "subject", bridge.Subject(">"))

	sig := <-sigChan
	lg.Info("received signal, shutting down event worker", "signal", sig)
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	expiryWorkerCmd.Flags().StringVar(&expirySchedule, "schedule", "", "Cron schedule (overrides config)")
	expiryWorkerCmd.Flags().BoolVar(&expiryOnce, "once", false, "Run a single sweep and exit")

	workerCmd.AddCommand(expiryWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
