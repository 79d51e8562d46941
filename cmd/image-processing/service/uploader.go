package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattermanifest/image-processing/cmd/image-processing/models"
	"github.com/mattermanifest/image-processing/common/blobstore"
	"github.com/mattermanifest/image-processing/common/logger"
	"github.com/mattermanifest/image-processing/common/telemetry"
)

// ErrCacheWrite wraps failures to store a transformed asset
var ErrCacheWrite = errors.New("cache write failed")

// Cache write results recorded in metrics
const (
	cacheWriteOK      = "ok"
	cacheWriteError   = "error"
	cacheWriteSkipped = "skipped"
)

// CacheWriter stores transformed assets in the transformed store
type CacheWriter struct {
	store    blobstore.Store // nil disables caching
	ttl      string
	reporter telemetry.Reporter
	metrics  *telemetry.Metrics
	log      *logger.Logger
}

// NewCacheWriter creates a cache writer. A nil store makes Store a no-op.
func NewCacheWriter(store blobstore.Store, ttl string, reporter telemetry.Reporter, metrics *telemetry.Metrics, log *logger.Logger) *CacheWriter {
	return &CacheWriter{
		store:    store,
		ttl:      ttl,
		reporter: reporter,
		metrics:  metrics,
		log:      log,
	}
}

// Enabled reports whether a transformed store is configured
func (w *CacheWriter) Enabled() bool {
	return w.store != nil
}

// Store writes asset under key with the cache-control metadata. Failures are
// logged and reported; callers are free to ignore the returned error.
func (w *CacheWriter) Store(ctx context.Context, asset *models.TransformedAsset, key string) error {
	if !w.Enabled() {
		w.metrics.ObserveCacheWrite(cacheWriteSkipped)
		return nil
	}

	err := w.store.Put(ctx, key, asset.Data, asset.ContentType, map[string]string{
		"cache-control": w.ttl,
	})
	if err != nil {
		w.metrics.ObserveCacheWrite(cacheWriteError)
		w.log.WithContext(ctx).WithAsset(key).Error("cache write failed", "bucket", w.store.Bucket(), "error", err)
		w.reporter.Report(ctx, err, map[string]any{"file": key, "bucket": w.store.Bucket()})
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}

	w.metrics.ObserveCacheWrite(cacheWriteOK)
	w.log.WithContext(ctx).Debug("cached transformed asset", "key", key, "bytes", len(asset.Data))
	return nil
}
