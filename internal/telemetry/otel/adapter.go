package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"psup-auth/internal/event"
)

const instrumentationName = "psup-auth.events"

// recordEmitter is the subset of otellog.Logger used by the emitter.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an event emitter writing OTel log records through provider.
// A nil provider yields a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) event.Emitter {
	if provider == nil {
		return event.EmitterFunc(func(context.Context, event.Event) error { return nil })
	}
	return &logEmitter{logger: provider.Logger(instrumentationName)}
}

type logEmitter struct {
	logger recordEmitter
}

func (e *logEmitter) Emit(ctx context.Context, ev event.Event) error {
	var rec otellog.Record
	ts := ev.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetEventName(ev.Name)
	if md := ev.Metadata(); md != "" {
		rec.SetBody(otellog.StringValue(md))
	}
	rec.AddAttributes(otellog.String("event_name", ev.Name))
	if ev.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", ev.UserID))
	}
	if ev.ContextID != "" {
		rec.AddAttributes(otellog.String("context_id", ev.ContextID))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
