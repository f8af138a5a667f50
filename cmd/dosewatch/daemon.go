package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/dosewatch/internal/alert"
	"github.com/fentz26/dosewatch/internal/audit"
	"github.com/fentz26/dosewatch/internal/clock"
	"github.com/fentz26/dosewatch/internal/config"
	"github.com/fentz26/dosewatch/internal/controlplane"
	"github.com/fentz26/dosewatch/internal/reminder"
	"github.com/fentz26/dosewatch/internal/scheduler"
	"github.com/fentz26/dosewatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the dosewatch daemon",
	Long: `Starts the dosewatch daemon. It checks the schedule every minute, runs the
daily rollover every hour, and serves the HTTP API used by the CLI and TUI.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to a SQLite database file (default in-memory, overrides config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.Store.DSN = dbPath
	}

	level, _ := cfg.Log.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	loc, _ := cfg.Reminder.Location()

	logger.Info("starting dosewatch daemon", "version", controlplane.Version, "db", cfg.Store.DSN, "timezone", loc.String())

	var alerter alert.Alerter = alert.NewLogAlerter(logger.With("component", "alert"))
	if len(cfg.Alert.Command) > 0 {
		ea, err := alert.NewExecAlerter(cfg.Alert.Command, logger.With("component", "alert"))
		if err != nil {
			return err
		}
		alerter = ea
	}

	// Initialize store
	s, err := store.New(cfg.Store.DSN)
	if err != nil {
		return err
	}

	// Initialize components
	sess := reminder.NewSession(s, reminder.Options{
		Clock:     clock.Real{},
		Location:  loc,
		SnoozeFor: cfg.Reminder.Snooze,
		CatchUp:   cfg.Reminder.CatchUp,
		FeedLimit: cfg.Reminder.FeedLimit,
		Journal:   audit.NewJournal(s),
		Alerter:   alerter,
		Logger:    logger.With("component", "reminder"),
	})

	ctx := context.Background()
	if _, err := sess.SetMedicines(ctx, cfg.Schedule.Medicines); err != nil {
		s.Close()
		return fmt.Errorf("load schedule: %w", err)
	}
	if _, err := sess.SetContacts(ctx, cfg.Schedule.Contacts); err != nil {
		s.Close()
		return fmt.Errorf("load contacts: %w", err)
	}

	// Rollover is registered first so a restart backfills before reminding.
	sched := scheduler.New(&cfg.Scheduler, clock.Real{}, logger.With("component", "scheduler"))
	if err := sched.Register("rollover", cfg.Scheduler.RolloverInterval, func(ctx context.Context) error {
		_, err := sess.CheckRollover(ctx)
		return err
	}); err != nil {
		s.Close()
		return err
	}
	if err := sched.Register("reminders", cfg.Scheduler.ReminderInterval, sess.CheckReminders); err != nil {
		s.Close()
		return err
	}

	// Create service and server
	service := controlplane.NewService(sess, s, sched)
	server := controlplane.NewServer(service, cfg.Server.Listen, logger.With("component", "http"))

	sched.Start()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "error", err)
			sched.Stop()
			s.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	sched.Stop()

	logger.Info("closing database connection")
	if err := s.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
