// Package telemetry wraps Sentry tracing for the answer pipeline.
package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

const serviceName = "repliq"

// Config holds the Sentry initialization settings
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Init starts the Sentry client with tracing enabled and returns a shutdown
// function that flushes pending events. An empty DSN yields a no-op
// shutdown; an init failure is logged and the process continues untraced.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serviceName,
		TracesSampler:    sentry.TracesSampler(sampleTrace(cfg.TracesSampleRate)),
	})
	if err != nil {
		log.Printf("sentry: failed to initialize (continuing without tracing): %v", err)
		return func() {}, nil
	}

	log.Printf("sentry: tracing initialized (environment: %s, sample_rate: %.2f)", cfg.Environment, cfg.TracesSampleRate)
	return func() { sentry.Flush(5 * time.Second) }, nil
}

// sampleTrace drops health probes and makes child spans follow their
// parent's sampling decision
func sampleTrace(rate float64) func(ctx sentry.SamplingContext) float64 {
	return func(ctx sentry.SamplingContext) float64 {
		if ctx.Span.Name == "GET /health" || ctx.Span.Op == "http.server GET /health" {
			return 0.0
		}

		var rootSpanID sentry.SpanID
		if ctx.Span.ParentSpanID != rootSpanID {
			if ctx.Span.Sampled.Bool() {
				return 1.0
			}
			return 0.0
		}
		return rate
	}
}

// SpanAttributes carries the tags recorded on pipeline spans. Zero-value
// fields are omitted.
type SpanAttributes struct {
	SessionID string
	Source    string
	Operation string
}

// Span wraps sentry.Span so callers do not depend on the SDK directly
type Span struct {
	inner *sentry.Span
}

// End finishes the span
func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span failed and captures the exception
func (s *Span) SetError(err error) {
	if s.inner == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

// StartSpan opens a child span under the transaction in ctx, or a new
// transaction when there is none
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	if attrs.SessionID != "" {
		span.SetTag("session_id", attrs.SessionID)
	}
	if attrs.Source != "" {
		span.SetTag("source", attrs.Source)
	}
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}

	return span.Context(), &Span{inner: span}
}

// CaptureError reports an error through the hub in ctx, falling back to the
// global hub
func CaptureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
