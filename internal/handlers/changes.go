package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"top100/internal/events"
)

const keepaliveInterval = 25 * time.Second

// ChangesHandler streams record changes to admin consoles as server-sent events.
type ChangesHandler struct {
	source    events.Source
	keepalive time.Duration
	logger    *slog.Logger
}

// NewChangesHandler creates a new change stream handler.
func NewChangesHandler(source events.Source, logger *slog.Logger) *ChangesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangesHandler{source: source, keepalive: keepaliveInterval, logger: logger}
}

// Stream sends one "change" event per record change until the client leaves.
// Consumers refetch the named record; a missed event only delays a refresh.
func (h *ChangesHandler) Stream(c fiber.Ctx) error {
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := h.source.Subscribe(ctx)
	if err != nil {
		cancel()
		h.logger.Error("failed to subscribe to changes", "error", err)
		return jsonError(c, fiber.StatusServiceUnavailable, "change feed unavailable")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	keepalive := h.keepalive
	logger := h.logger
	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(keepalive)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case change, ok := <-changes:
				if !ok {
					return
				}
				data, err := json.Marshal(change)
				if err != nil {
					logger.Error("failed to encode change", "error", err)
					continue
				}
				fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			case <-ticker.C:
				fmt.Fprint(w, ": keepalive\n\n")
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
}
