package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"homeportal/internal/calendar"
	"homeportal/internal/calendar/google"
	applog "homeportal/internal/log"
	"homeportal/internal/worker"
)

func newWorkerCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume change messages: write the audit log and mirror events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := SignalContext(cmd.Context())
			defer cancel()
			return runWorker(ctx, a)
		},
	}
}

func runWorker(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger := a.logger.WithComponent(applog.ComponentWorker)

	if !cfg.MessagingEnabled() {
		return errors.New("the worker needs AMQP_URL to be set")
	}

	repo, err := InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Leave mirror as a nil interface when disabled; the worker then
	// acknowledges calendar messages without calling out.
	var mirror calendar.Mirror
	if cfg.CalendarMirrorEnabled() {
		client, err := google.New(ctx, cfg.GoogleCalendarID, cfg.GoogleCalendarJSONBase64)
		if err != nil {
			return err
		}
		mirror = client
		logger.Info("Google Calendar mirror enabled", "calendar_id", cfg.GoogleCalendarID)
	} else {
		logger.Info("Google Calendar mirror disabled - no GOOGLE_CALENDAR_ID provided")
	}

	client, err := InitAMQP(logger, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.New(repo, repo, mirror, logger)
	logger.Info("Starting homeportal worker", "queue", cfg.AMQPQueue)

	err = client.ConsumeWithRetry(ctx, w.Handle)
	stats := w.Stats()
	logger.Info("Worker stopped", "handled", stats.Handled, "failed", stats.Failed)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
