// Package notify delivers region-entered reminders. Push delivery is out of
// reach for a terminal client, so reminders are logged and recorded.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nhle/geotask/internal/model"
)

// Log writes reminders to a logger.
type Log struct {
	Logger *slog.Logger
}

// Notify logs n at info level.
func (l Log) Notify(_ context.Context, n model.Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("reminder", "region", n.RegionID, "message", n.Message)
	return nil
}

// NotificationStore is where recorded reminders are kept.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n model.Notification) error
}

// Store records reminders so the front-end can show them as unread.
type Store struct {
	Store NotificationStore
}

// Notify inserts n.
func (s Store) Notify(ctx context.Context, n model.Notification) error {
	if err := s.Store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("recording reminder: %w", err)
	}
	return nil
}

// Func adapts a function to a notifier.
type Func func(ctx context.Context, n model.Notification) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, n model.Notification) error { return f(ctx, n) }

// Notifier matches geofence.Notifier.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// Multi fans a reminder out to every notifier and joins their errors.
type Multi []Notifier

// Notify delivers n to each notifier.
func (m Multi) Notify(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
