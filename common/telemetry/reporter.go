package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mattermanifest/image-processing/common/logger"
)

// Reporter ships caught errors to an external collector.
// Implementations must never panic and never block the request
// beyond handing the event off.
type Reporter interface {
	Report(ctx context.Context, err error, extra map[string]any)
	Flush(timeout time.Duration) bool
}

// LogReporter logs reported errors. Used when no collector is configured.
type LogReporter struct {
	log     *logger.Logger
	metrics *Metrics
}

// NewLogReporter creates a reporter that only logs
func NewLogReporter(log *logger.Logger, metrics *Metrics) *LogReporter {
	return &LogReporter{log: log, metrics: metrics}
}

// Report logs the error with its extras
func (r *LogReporter) Report(ctx context.Context, err error, extra map[string]any) {
	if err == nil {
		return
	}
	r.metrics.observeReport()
	r.log.WithContext(ctx).WithFields(extra).Warn("error reported", "error", err)
}

// Flush is a no-op
func (r *LogReporter) Flush(time.Duration) bool { return true }

// SentryOptions configures the Sentry client
type SentryOptions struct {
	DSN              string
	Environment      string
	ServerName       string
	TracesSampleRate float64
}

// SentryReporter reports errors to Sentry
type SentryReporter struct {
	hub     *sentry.Hub
	metrics *Metrics
}

// NewSentryReporter creates a Sentry client and a hub bound to it
func NewSentryReporter(opts SentryOptions, metrics *Metrics) (*SentryReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		ServerName:       opts.ServerName,
		EnableTracing:    opts.TracesSampleRate > 0,
		TracesSampleRate: opts.TracesSampleRate,
	})
	if err != nil {
		return nil, err
	}
	return NewSentryReporterWithClient(client, metrics), nil
}

// NewSentryReporterWithClient wraps an existing Sentry client
func NewSentryReporterWithClient(client *sentry.Client, metrics *Metrics) *SentryReporter {
	return &SentryReporter{
		hub:     sentry.NewHub(client, sentry.NewScope()),
		metrics: metrics,
	}
}

// Report captures the error with extras attached to a scoped event
func (r *SentryReporter) Report(ctx context.Context, err error, extra map[string]any) {
	if err == nil {
		return
	}
	r.metrics.observeReport()

	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtras(extra)
		if requestID := ctx.Value(logger.RequestIDKey); requestID != nil {
			if id, ok := requestID.(string); ok {
				scope.SetTag("request_id", id)
			}
		}
		hub.CaptureException(err)
	})
}

// Flush waits for buffered events to be delivered
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
