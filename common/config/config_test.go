package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("S3_ORIGINAL_IMAGE_BUCKET", "origin")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load("image-processing")
	require.NoError(t, err)

	assert.Equal(t, "image-processing", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.True(t, cfg.Service.ResponseBase64)
	assert.Equal(t, DriverS3, cfg.Storage.Driver)
	assert.Equal(t, DriverS3, cfg.Storage.TransformedDriver)
	assert.Equal(t, time.Hour, cfg.Storage.PresignTTL)
	assert.Equal(t, "public, max-age=31622400", cfg.Cache.TTL)
	assert.Equal(t, "x-origin-secret-header", cfg.Security.SecretHeader)
	assert.False(t, cfg.Security.ValidateOrigin)
	assert.False(t, cfg.CachingEnabled())
	assert.Equal(t, CodecVips, cfg.Codec.Driver)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("S3_ORIGINAL_IMAGE_BUCKET", "origin")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SECRET_KEY", "")

	_, err := Load("image-processing")
	require.Error(t, err)

	t.Setenv("SECRET_KEY", "s3cr3t")
	cfg, err := Load("image-processing")
	require.NoError(t, err)
	assert.True(t, cfg.Security.ValidateOrigin)
}

func TestLoad_EnvNameFallback(t *testing.T) {
	t.Setenv("S3_ORIGINAL_IMAGE_BUCKET", "origin")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("ENV_NAME", "staging")

	cfg, err := Load("image-processing")
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Service.Environment)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Service: ServiceConfig{Port: 8080},
			Storage: StorageConfig{
				Driver:       DriverMemory,
				OriginBucket: "origin",
				PresignTTL:   time.Hour,
			},
			Codec: CodecConfig{Driver: CodecImaging},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Service.Port = 0 }, wantErr: true},
		{name: "missing origin bucket", mutate: func(c *Config) { c.Storage.OriginBucket = "" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "ftp" }, wantErr: true},
		{name: "redis origin not allowed", mutate: func(c *Config) { c.Storage.Driver = DriverRedis }, wantErr: true},
		{name: "redis cache allowed", mutate: func(c *Config) {
			c.Storage.TransformedDriver = DriverRedis
			c.Storage.TransformedBucket = "cache"
		}},
		{name: "unknown cache driver ignored when disabled", mutate: func(c *Config) { c.Storage.TransformedDriver = "ftp" }},
		{name: "unknown cache driver", mutate: func(c *Config) {
			c.Storage.TransformedDriver = "ftp"
			c.Storage.TransformedBucket = "cache"
		}, wantErr: true},
		{name: "presign ttl too long", mutate: func(c *Config) { c.Storage.PresignTTL = 8 * 24 * time.Hour }, wantErr: true},
		{name: "negative inline limit", mutate: func(c *Config) { c.Storage.InlineLimitBytes = -1 }, wantErr: true},
		{name: "unknown codec", mutate: func(c *Config) { c.Codec.Driver = "magick" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCacheConfig_MaxAge(t *testing.T) {
	assert.Equal(t, 31622400*time.Second, CacheConfig{TTL: "public, max-age=31622400"}.MaxAge())
	assert.Equal(t, 60*time.Second, CacheConfig{TTL: "max-age=60"}.MaxAge())
	assert.Equal(t, time.Duration(0), CacheConfig{TTL: "no-store"}.MaxAge())
	assert.Equal(t, time.Duration(0), CacheConfig{TTL: "s-maxage=60"}.MaxAge())
}
