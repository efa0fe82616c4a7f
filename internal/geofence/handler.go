package geofence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/geotask/internal/model"
)

// EventType is the kind of region transition.
type EventType int

const (
	Enter EventType = iota + 1
	Exit
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case Enter:
		return "enter"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// Event is a region transition delivered by the platform.
type Event struct {
	Type   EventType
	Region Region
	At     time.Time
}

// Notifier delivers a user-facing notification.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// EnterMessage is the reminder text for entering a region.
func EnterMessage(name string) string {
	return fmt.Sprintf("You have entered the region for %s. Don't forget to check your list!", name)
}

// Handler turns region events into notifications.
type Handler struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(n Notifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{notifier: n, logger: logger}
}

// Handle raises a reminder on Enter and logs Exit.
func (h *Handler) Handle(ctx context.Context, ev Event) error {
	switch ev.Type {
	case Enter:
		name := ev.Region.Title
		if name == "" {
			name = ev.Region.Identifier
		}
		at := ev.At
		if at.IsZero() {
			at = time.Now()
		}
		h.logger.Info("entered region", "identifier", ev.Region.Identifier)
		err := h.notifier.Notify(ctx, model.Notification{
			RegionID:  ev.Region.Identifier,
			Title:     name,
			Message:   EnterMessage(name),
			CreatedAt: at,
		})
		if err != nil {
			return fmt.Errorf("notifying region %s: %w", ev.Region.Identifier, err)
		}
		return nil
	case Exit:
		h.logger.Info("exited region", "identifier", ev.Region.Identifier)
		return nil
	default:
		return fmt.Errorf("unknown region event type %d", int(ev.Type))
	}
}
