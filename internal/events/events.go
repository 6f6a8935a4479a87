// Package events carries record change notifications to admin consoles.
// Transports are interchangeable: push through an in-process or NATS broker,
// or pull by polling the database.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"top100/internal/models"
)

// Change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Publisher announces a change. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, c models.Change) error
}

// Source delivers changes until ctx is cancelled, then closes the channel.
type Source interface {
	Subscribe(ctx context.Context) (<-chan models.Change, error)
}

// Nop discards published changes. It is used when changes are discovered by polling.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, models.Change) error { return nil }

// NewChange builds a change stamped with the current time.
func NewChange(kind string, id uuid.UUID, action string) models.Change {
	return models.Change{Kind: kind, ID: id, Action: action, UpdatedAt: time.Now().UTC()}
}

// Notify publishes c and logs a failure instead of returning it, so a
// notification problem never fails the mutation that caused it.
func Notify(ctx context.Context, p Publisher, logger *slog.Logger, c models.Change) {
	if p == nil {
		return
	}
	if err := p.Publish(context.WithoutCancel(ctx), c); err != nil {
		logger.Warn("change notification failed", "kind", c.Kind, "id", c.ID, "action", c.Action, "error", err)
	}
}
