package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Storage driver names
const (
	DriverS3     = "s3"
	DriverMinio  = "minio"
	DriverGCS    = "gcs"
	DriverFS     = "fs"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Codec driver names
const (
	CodecVips    = "vips"
	CodecImaging = "imaging"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Storage   StorageConfig
	Cache     CacheConfig
	Security  SecurityConfig
	Codec     CodecConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name           string
	Port           int
	Environment    string
	LogLevel       string
	LogFormat      string
	LogFile        string
	Region         string
	RoutePrefix    string
	ResponseBase64 bool
}

// StorageConfig holds origin and transformed-cache store settings
type StorageConfig struct {
	Driver            string
	OriginBucket      string
	TransformedDriver string
	TransformedBucket string // empty disables caching
	Endpoint          string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	PathStyle         bool
	FSRoot            string
	PresignTTL        time.Duration
	InlineLimitBytes  int64 // 0 disables the size-based link rule
}

// CacheConfig holds the cache directive returned to the edge
type CacheConfig struct {
	TTL string
}

// SecurityConfig holds origin validation settings
type SecurityConfig struct {
	ValidateOrigin bool
	OriginSecret   string
	SecretHeader   string
}

// CodecConfig selects the image codec backend. imaging needs no cgo but
// cannot encode WEBP or AVIF, so a WEBP original is only served as is or
// converted to another format.
type CodecConfig struct {
	Driver string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof      bool
	PprofPort        int
	EnableMetrics    bool
	MetricsPort      int
	SentryDSN        string
	TracesSampleRate float64
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	environment := getEnv("ENVIRONMENT", getEnv("ENV_NAME", "development"))
	driver := getEnv("STORAGE_DRIVER", DriverS3)

	cfg := &Config{
		Service: ServiceConfig{
			Name:           serviceName,
			Port:           getEnvInt("PORT", 8080),
			Environment:    environment,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "text"),
			LogFile:        getEnv("LOG_FILE", ""),
			Region:         getEnv("AWS_REGION", "us-east-1"),
			RoutePrefix:    getEnv("ROUTE_PREFIX", ""),
			ResponseBase64: getEnvBool("RESPONSE_BASE64", true),
		},
		Storage: StorageConfig{
			Driver:            driver,
			OriginBucket:      getEnv("S3_ORIGINAL_IMAGE_BUCKET", ""),
			TransformedDriver: getEnv("TRANSFORMED_STORE_DRIVER", driver),
			TransformedBucket: getEnv("S3_TRANSFORMED_IMAGE_BUCKET", ""),
			Endpoint:          getEnv("STORAGE_ENDPOINT", ""),
			AccessKey:         getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:         getEnv("STORAGE_SECRET_KEY", ""),
			UseSSL:            getEnvBool("STORAGE_USE_SSL", true),
			PathStyle:         getEnvBool("STORAGE_PATH_STYLE", false),
			FSRoot:            getEnv("STORAGE_FS_ROOT", "./data"),
			PresignTTL:        getEnvDuration("PRESIGN_TTL", 1*time.Hour),
			InlineLimitBytes:  getEnvInt64("INLINE_LIMIT_BYTES", 0),
		},
		Cache: CacheConfig{
			TTL: getEnv("TRANSFORMED_IMAGE_CACHE_TTL", "public, max-age=31622400"),
		},
		Security: SecurityConfig{
			ValidateOrigin: getEnvBool("ORIGIN_VALIDATION", environment == "production"),
			OriginSecret:   getEnv("SECRET_KEY", ""),
			SecretHeader:   getEnv("ORIGIN_SECRET_HEADER", "x-origin-secret-header"),
		},
		Codec: CodecConfig{
			Driver: getEnv("CODEC", CodecVips),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Telemetry: TelemetryConfig{
			EnablePprof:      getEnvBool("ENABLE_PPROF", false),
			PprofPort:        getEnvInt("PPROF_PORT", 6060),
			EnableMetrics:    getEnvBool("ENABLE_METRICS", true),
			MetricsPort:      getEnvInt("METRICS_PORT", 9090),
			SentryDSN:        getEnv("SENTRY_DSN", ""),
			TracesSampleRate: getEnvFloat("SENTRY_TRACES_SAMPLE_RATE", 0.1),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Storage.OriginBucket == "" {
		return fmt.Errorf("origin bucket is required (S3_ORIGINAL_IMAGE_BUCKET)")
	}

	switch c.Storage.Driver {
	case DriverS3, DriverMinio, DriverGCS, DriverFS, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	if c.CachingEnabled() {
		switch c.Storage.TransformedDriver {
		case DriverS3, DriverMinio, DriverGCS, DriverFS, DriverMemory, DriverRedis:
		default:
			return fmt.Errorf("unknown transformed store driver: %s", c.Storage.TransformedDriver)
		}
	}

	if c.Storage.PresignTTL <= 0 || c.Storage.PresignTTL > 7*24*time.Hour {
		return fmt.Errorf("presign ttl must be within (0, 168h]: %s", c.Storage.PresignTTL)
	}

	if c.Storage.InlineLimitBytes < 0 {
		return fmt.Errorf("inline limit must be >= 0")
	}

	switch c.Codec.Driver {
	case CodecVips, CodecImaging:
	default:
		return fmt.Errorf("unknown codec: %s", c.Codec.Driver)
	}

	if c.Security.ValidateOrigin && c.Security.OriginSecret == "" {
		return fmt.Errorf("origin validation requires SECRET_KEY")
	}

	return nil
}

// CachingEnabled reports whether transformed assets are written back
func (c *Config) CachingEnabled() bool {
	return c.Storage.TransformedBucket != ""
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

var maxAgePattern = regexp.MustCompile(`(?:^|[,\s])max-age=(\d+)`)

// MaxAge extracts the max-age directive of the cache TTL string.
// Returns 0 when the directive is absent.
func (c CacheConfig) MaxAge() time.Duration {
	m := maxAgePattern.FindStringSubmatch(strings.ToLower(c.TTL))
	if m == nil {
		return 0
	}
	secs, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
