package usecase

import (
	"context"
	"log/slog"
	"time"

	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

// AutoCollectWorker sweeps the opted-in users once a day and runs a silent
// collect with auto-purchase for each of them. Users are processed
// sequentially; one slow or failing user must not starve the rest, so every
// per-user error is logged and the sweep moves on.
type AutoCollectWorker struct {
	store     port.SessionStore
	notifier  port.Notifier
	collector *Collector
	logger    *slog.Logger

	at       string
	location *time.Location
}

// NewAutoCollectWorker builds the worker. An unknown timezone falls back
// to UTC.
func NewAutoCollectWorker(store port.SessionStore, notifier port.Notifier, collector *Collector, cfg configs.Collector, logger *slog.Logger) *AutoCollectWorker {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", slog.String("timezone", cfg.Timezone))
		loc = time.UTC
	}
	return &AutoCollectWorker{
		store:     store,
		notifier:  notifier,
		collector: collector,
		logger:    logger,
		at:        cfg.AutoCollectAt,
		location:  loc,
	}
}

// Run blocks until ctx is done, firing RunOnce at the configured local time
// every day.
func (w *AutoCollectWorker) Run(ctx context.Context) {
	for {
		wait := time.Until(w.nextRun(time.Now().In(w.location)))
		w.logger.Info("auto-collect sweep scheduled", slog.Duration("in", wait))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		w.RunOnce(ctx)
	}
}

// RunOnce performs one sweep over every auto-collect user.
func (w *AutoCollectWorker) RunOnce(ctx context.Context) {
	users, err := w.store.ListAutoCollectUsers(ctx)
	if err != nil {
		w.logger.Error("auto-collect sweep aborted", slog.Any("error", err))
		return
	}
	w.logger.Info("auto-collect sweep started", slog.Int("users", len(users)))

	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		w.runUser(ctx, userID)
	}
	w.logger.Info("auto-collect sweep finished")
}

func (w *AutoCollectWorker) runUser(ctx context.Context, userID string) {
	sub, err := w.store.SubscriptionStatus(ctx, userID)
	if err != nil {
		w.logger.Warn("subscription lookup failed",
			slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	if !sub.Active || sub.Suspended {
		return
	}

	report, err := w.collector.Collect(ctx, userID, CollectOptions{Silent: true, AutoPurchase: true})
	switch {
	case err == port.ErrNoCampaigns:
		w.logger.Info("no campaigns for auto-collect user", slog.String("user_id", userID))
		return
	case err != nil:
		w.logger.Warn("auto-collect run failed",
			slog.String("user_id", userID), slog.Any("error", err))
		return
	}

	w.notify(ctx, userID, report)
}

// notify pushes the daily report. Silent runs produced no progress messages,
// so this is the user's only signal the sweep ran.
func (w *AutoCollectWorker) notify(ctx context.Context, userID string, report domain.CollectReport) {
	text := "🌅 COLETA AUTOMÁTICA CONCLUÍDA!\n\n" + finalText(report)
	if _, err := w.notifier.Send(ctx, userID, text); err != nil {
		w.logger.Debug("auto-collect report not delivered",
			slog.String("user_id", userID), slog.Any("error", err))
	}
}

// nextRun computes the next occurrence of the configured HH:MM in the
// worker's timezone, rolling to tomorrow when the time already passed today.
func (w *AutoCollectWorker) nextRun(now time.Time) time.Time {
	at, err := time.ParseInLocation("15:04", w.at, w.location)
	if err != nil {
		w.logger.Warn("bad auto-collect time, using 05:30", slog.String("at", w.at))
		at, _ = time.ParseInLocation("15:04", "05:30", w.location)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, w.location)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
