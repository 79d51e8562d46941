package bootstrap

import (
	"github.com/mattermanifest/image-processing/common/config"
	"github.com/mattermanifest/image-processing/common/logger"
	"github.com/mattermanifest/image-processing/common/telemetry"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipTelemetry  bool
	skipRedis      bool
	customLogger   *logger.Logger
	customConfig   *config.Config
	customReporter telemetry.Reporter
}

// WithoutTelemetry skips the pprof and metrics listeners.
// Metrics are still collected.
func WithoutTelemetry() Option {
	return func(o *options) {
		o.skipTelemetry = true
	}
}

// WithoutRedis skips the Redis connection even when the transformed store needs it
func WithoutRedis() Option {
	return func(o *options) {
		o.skipRedis = true
	}
}

// WithCustomLogger uses a custom logger instead of creating one
func WithCustomLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithCustomConfig uses a custom config instead of loading from env
func WithCustomConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithReporter replaces the error reporter chosen from config
func WithReporter(r telemetry.Reporter) Option {
	return func(o *options) {
		o.customReporter = r
	}
}

func defaultOptions() *options {
	return &options{}
}
