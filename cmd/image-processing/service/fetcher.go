package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattermanifest/image-processing/cmd/image-processing/models"
	"github.com/mattermanifest/image-processing/common/blobstore"
	"github.com/mattermanifest/image-processing/common/logger"
	"github.com/mattermanifest/image-processing/common/telemetry"
)

// ErrAssetNotFound is returned for any failure to read the original
var ErrAssetNotFound = errors.New("asset not found")

// AssetFetcher reads originals from the origin store
type AssetFetcher struct {
	store       blobstore.Store
	presignTTL  time.Duration
	inlineLimit int64
	reporter    telemetry.Reporter
	log         *logger.Logger
}

// NewAssetFetcher creates a fetcher. inlineLimit > 0 also sends objects
// larger than the limit down the link branch.
func NewAssetFetcher(store blobstore.Store, presignTTL time.Duration, inlineLimit int64, reporter telemetry.Reporter, log *logger.Logger) *AssetFetcher {
	return &AssetFetcher{
		store:       store,
		presignTTL:  presignTTL,
		inlineLimit: inlineLimit,
		reporter:    reporter,
		log:         log,
	}
}

// Fetch reads the original at assetPath. Link-only assets additionally get
// a pre-signed URL; if presigning fails the URL stays empty. The caller
// closes the returned body.
func (f *AssetFetcher) Fetch(ctx context.Context, assetPath string) (*models.OriginalAsset, error) {
	if assetPath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrAssetNotFound)
	}

	log := f.log.WithContext(ctx).WithAsset(assetPath)
	extra := map[string]any{"file": assetPath, "bucket": f.store.Bucket()}

	obj, err := f.store.Get(ctx, assetPath)
	if err != nil {
		log.Warn("original fetch failed", "bucket", f.store.Bucket(), "error", err)
		f.reporter.Report(ctx, err, extra)
		return nil, fmt.Errorf("%w: %w", ErrAssetNotFound, err)
	}

	asset := &models.OriginalAsset{
		Path:        assetPath,
		Body:        obj.Body,
		ContentType: obj.ContentType,
		Size:        obj.Size,
		LinkOnly:    f.linkOnly(assetPath, obj.Size),
	}
	log.Debug("original fetched", "content_type", obj.ContentType, "size", obj.Size, "link_only", asset.LinkOnly)

	if asset.LinkOnly {
		url, err := f.store.Presign(ctx, assetPath, f.presignTTL)
		if err != nil {
			log.Error("presign failed", "error", err)
			f.reporter.Report(ctx, err, extra)
		} else {
			asset.PresignedURL = url
		}
	}

	return asset, nil
}

func (f *AssetFetcher) linkOnly(assetPath string, size int64) bool {
	if models.RequiresLink(assetPath) {
		return true
	}
	return f.inlineLimit > 0 && size > f.inlineLimit
}
