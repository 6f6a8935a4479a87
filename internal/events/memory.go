package events

import (
	"context"
	"sync"

	"top100/internal/models"
)

// MemoryBroker fans changes out to in-process subscribers. A subscriber whose
// buffer is full misses the change.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[chan models.Change]struct{}
	buffer int
}

// NewMemoryBroker creates a broker with the given per-subscriber buffer.
func NewMemoryBroker(buffer int) *MemoryBroker {
	if buffer <= 0 {
		buffer = 64
	}
	return &MemoryBroker{subs: make(map[chan models.Change]struct{}), buffer: buffer}
}

// Publish delivers c to every current subscriber without blocking.
func (b *MemoryBroker) Publish(_ context.Context, c models.Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done.
func (b *MemoryBroker) Subscribe(ctx context.Context) (<-chan models.Change, error) {
	ch := make(chan models.Change, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

// Subscribers returns the number of active subscribers.
func (b *MemoryBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
