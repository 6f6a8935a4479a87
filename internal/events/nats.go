package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"top100/internal/models"
)

// DefaultSubject is the NATS subject changes are published on.
const DefaultSubject = "top100.changes"

// NATSBroker publishes and receives changes over a NATS subject so every
// server instance sees every change.
type NATSBroker struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewNATSBroker connects to the NATS server at url.
func NewNATSBroker(url string, logger *slog.Logger) (*NATSBroker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url, nats.Name("top100"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSBroker{conn: conn, subject: DefaultSubject, logger: logger}, nil
}

// Publish sends c on the subject.
func (b *NATSBroker) Publish(_ context.Context, c models.Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}
	if err := b.conn.Publish(b.subject, data); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe receives changes until ctx is done. Changes arriving while the
// buffer is full are dropped.
func (b *NATSBroker) Subscribe(ctx context.Context) (<-chan models.Change, error) {
	ch := make(chan models.Change, 64)

	var (
		mu     sync.Mutex
		closed bool
	)

	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		var c models.Change
		if err := json.Unmarshal(msg.Data, &c); err != nil {
			b.logger.Warn("discarding malformed change", "error", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- c:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Debug("unsubscribe failed", "error", err)
		}
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()

	return ch, nil
}

// Close drains and closes the connection.
func (b *NATSBroker) Close() {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}
