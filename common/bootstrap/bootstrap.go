package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mattermanifest/image-processing/common/config"
	"github.com/mattermanifest/image-processing/common/logger"
	"github.com/mattermanifest/image-processing/common/redis"
	"github.com/mattermanifest/image-processing/common/telemetry"
)

const reporterFlushTimeout = 2 * time.Second

// Setup initializes all service components
// This is the main entry point for all services
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	// Apply options
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg := components.Config

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(cfg.Service.LogLevel, cfg.Service.LogFormat, cfg.Service.LogFile)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", cfg.Service.Environment,
	)

	// 3. Metrics are always collected; exposing them is a telemetry concern
	components.Metrics = telemetry.NewMetrics(metricsNamespace(serviceName))

	// 4. Error reporter
	switch {
	case options.customReporter != nil:
		components.Reporter = options.customReporter
	case cfg.Telemetry.SentryDSN != "":
		reporter, err := telemetry.NewSentryReporter(telemetry.SentryOptions{
			DSN:              cfg.Telemetry.SentryDSN,
			Environment:      cfg.Service.Environment,
			ServerName:       serviceName,
			TracesSampleRate: cfg.Telemetry.TracesSampleRate,
		}, components.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to init sentry: %w", err)
		}
		components.Reporter = reporter
		components.Logger.Info("error reporting to sentry enabled")
	default:
		components.Reporter = telemetry.NewLogReporter(components.Logger, components.Metrics)
	}
	components.addCleanup(func(context.Context) error {
		if !components.Reporter.Flush(reporterFlushTimeout) {
			components.Logger.Warn("error reporter did not flush in time")
		}
		return nil
	})

	// 5. Redis, only when it backs the transformed store
	if !options.skipRedis && cfg.CachingEnabled() && cfg.Storage.TransformedDriver == config.DriverRedis {
		components.Logger.Info("connecting to redis", "addr", cfg.RedisAddr())
		raw := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		components.Redis = redis.NewClient(raw, components.Logger)
		if err := components.Redis.Ping(ctx); err != nil {
			_ = components.Shutdown(ctx)
			_ = raw.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		components.addCleanup(func(context.Context) error {
			components.Logger.Info("closing redis connection")
			return components.Redis.Close()
		})
	}

	// 6. Initialize telemetry (if not skipped)
	if !options.skipTelemetry && (cfg.Telemetry.EnablePprof || cfg.Telemetry.EnableMetrics) {
		pprofPort, metricsPort := 0, 0
		if cfg.Telemetry.EnablePprof {
			pprofPort = cfg.Telemetry.PprofPort
		}
		if cfg.Telemetry.EnableMetrics {
			metricsPort = cfg.Telemetry.MetricsPort
		}

		components.Logger.Info("initializing telemetry",
			"pprof_port", pprofPort,
			"metrics_port", metricsPort,
		)
		components.Telemetry = telemetry.New(pprofPort, metricsPort, components.Metrics, components.Logger)

		if err := components.Telemetry.Start(ctx); err != nil {
			components.Logger.Warn("failed to start telemetry", "error", err)
			// Don't fail startup if telemetry fails
		}
		components.addCleanup(components.Telemetry.Stop)
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"redis", components.Redis != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}

// metricsNamespace turns a service name into a valid Prometheus namespace
func metricsNamespace(serviceName string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(serviceName)
}
