package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"top100/internal/models"
)

// ChangeLister reads the change feed from the database.
type ChangeLister interface {
	// Now returns the clock that stamps changes.
	Now(ctx context.Context) (time.Time, error)
	ChangesAfter(ctx context.Context, after models.ChangeCursor, limit int) ([]models.Change, error)
}

// Poller discovers changes by querying the database on an interval.
type Poller struct {
	lister   ChangeLister
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

// NewPoller creates a poller that checks every interval.
func NewPoller(lister ChangeLister, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{lister: lister, interval: interval, batch: 200, logger: logger}
}

// Subscribe starts a polling loop for this subscriber. Only changes made
// after the call are delivered.
func (p *Poller) Subscribe(ctx context.Context) (<-chan models.Change, error) {
	start, err := p.lister.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read database clock: %w", err)
	}

	ch := make(chan models.Change)
	cursor := models.ChangeCursor{UpdatedAt: start}

	go func() {
		defer close(ch)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			// A full batch means more rows may be waiting.
			for {
				changes, err := p.lister.ChangesAfter(ctx, cursor, p.batch)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					p.logger.Warn("change poll failed", "error", err)
					break
				}

				for _, c := range changes {
					select {
					case ch <- c:
					case <-ctx.Done():
						return
					}
					cursor = c.Cursor()
				}

				if len(changes) < p.batch {
					break
				}
			}
		}
	}()

	return ch, nil
}
