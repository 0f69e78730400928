package event

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// emitTimeout bounds a single asynchronous emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the servers stop before closing exporters,
// so in-flight asynchronous emits can complete.
const ShutdownDrainDuration = emitTimeout

// Async wraps an emitter so Emit returns immediately and delivery happens in a goroutine.
// The goroutine uses a fresh context so request cancellation does not abort delivery.
func Async(inner Emitter, log *zap.Logger) Emitter {
	if inner == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return EmitterFunc(func(_ context.Context, e Event) error {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
			defer cancel()
			if err := inner.Emit(ctx, e); err != nil {
				log.Warn("event: async emit failed", zap.String("event", e.Name), zap.Error(err))
			}
		}()
		return nil
	})
}
