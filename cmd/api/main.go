// Command api serves the BookHive HTTP API and runs the reminder scheduler.
//
// @title BookHive API
// @version 1.0
// @description Library catalogue, loans, reviews and due-date reminders.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookhive/internal/config"
	"bookhive/internal/logging"
	"bookhive/internal/notify"
	"bookhive/internal/reminder"
	"bookhive/internal/store"

	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, !cfg.IsProduction())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DB, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	mailer := notify.NewMailer(cfg.Mail.From, notify.NewLogTransport(log.Named("mail")), log.Named("notify"))
	a := newApp(cfg, log, st, mailer)
	handler, closeLimiter := a.routes()
	defer closeLimiter()

	var sched *reminder.Scheduler
	if cfg.Reminder.Enabled {
		sweeper := reminder.NewService(st.Loans, mailer, log.Named("reminder"),
			reminder.WithLookahead(cfg.Reminder.Lookahead),
			reminder.WithTimeout(cfg.Reminder.Timeout),
		)
		sched, err = reminder.NewScheduler(cfg.ReminderSchedule(), sweeper, log.Named("reminder"))
		if err != nil {
			return err
		}
		sched.Start()
		log.Info("reminder scheduler started", zap.String("schedule", cfg.ReminderSchedule()))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env), zap.String("driver", cfg.DB.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Warn("reminder scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
