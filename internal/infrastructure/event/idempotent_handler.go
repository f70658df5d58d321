package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pharmacy/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultHandlerDedupTTL is how long a delivered event id is remembered
const DefaultHandlerDedupTTL = 24 * time.Hour

// IdempotencyStats is a snapshot of a handler's delivery counters
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// IdempotentHandler wraps an EventHandler so each event id is handled at most
// once per TTL. A failed delivery releases the claim so a redelivery can retry.
type IdempotentHandler struct {
	handler   shared.EventHandler
	store     shared.IdempotencyStore
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// IdempotentHandlerOption is a functional option for IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithDedupTTL overrides DefaultHandlerDedupTTL
func WithDedupTTL(ttl time.Duration) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces the claimed keys, e.g. per handler
func WithKeyPrefix(prefix string) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.keyPrefix = prefix
	}
}

// NewIdempotentHandler wraps handler
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		handler:   handler,
		store:     store,
		ttl:       DefaultHandlerDedupTTL,
		keyPrefix: "event:",
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the event id, then runs the wrapped handler
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := h.keyPrefix + event.EventID().String()

	claimed, err := h.store.Claim(ctx, key, h.ttl)
	switch {
	case err != nil:
		// A store outage must not drop events; handle and accept a possible duplicate
		h.logger.Warn("idempotency check failed, handling anyway",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	case !claimed:
		h.duplicate.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		if claimed {
			if releaseErr := h.store.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
				h.logger.Warn("failed to release event claim",
					zap.String("event_id", event.EventID().String()),
					zap.Error(releaseErr),
				)
			}
		}
		return err
	}

	h.processed.Add(1)
	return nil
}

// Stats returns the delivery counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: h.processed.Load(),
		EventsDuplicate: h.duplicate.Load(),
		EventsFailed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
