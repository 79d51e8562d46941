package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattermanifest/image-processing/cmd/image-processing/models"
	"github.com/mattermanifest/image-processing/common/codec"
	"github.com/mattermanifest/image-processing/common/logger"
	"github.com/mattermanifest/image-processing/common/telemetry"
)

// ErrTransformFailed is returned for any decode, resize or encode failure
var ErrTransformFailed = errors.New("transform failed")

// Transformer applies parsed operations to an original through a codec
type Transformer struct {
	codec    codec.Codec
	reporter telemetry.Reporter
	metrics  *telemetry.Metrics
	log      *logger.Logger
}

// NewTransformer creates a transformer
func NewTransformer(c codec.Codec, reporter telemetry.Reporter, metrics *telemetry.Metrics, log *logger.Logger) *Transformer {
	return &Transformer{
		codec:    c,
		reporter: reporter,
		metrics:  metrics,
		log:      log,
	}
}

// Transform runs the codec over data. Without a format the output keeps
// contentType; with one it takes the format's content type.
func (t *Transformer) Transform(ctx context.Context, assetPath string, data []byte, ops models.Operations, contentType string) (asset *models.TransformedAsset, err error) {
	log := t.log.WithContext(ctx).WithAsset(assetPath)
	opts := ops.Options()

	start := time.Now()
	defer t.metrics.ObserveTransform(start)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("codec panic: %v", r)
		}
		if err != nil {
			log.Error("transform failed", "codec", t.codec.Name(), "error", err)
			t.reporter.Report(ctx, err, map[string]any{"file": assetPath})
			asset = nil
			err = fmt.Errorf("%w: %w", ErrTransformFailed, err)
		}
	}()

	out, err := t.codec.Process(data, opts.Codec())
	if err != nil {
		return nil, err
	}

	asset = &models.TransformedAsset{Data: out, ContentType: contentType}
	if opts.Format != nil {
		asset.ContentType = opts.Format.ContentType
	}

	log.Debug("transformed",
		"codec", t.codec.Name(),
		"in_bytes", len(data),
		"out_bytes", len(out),
		"content_type", asset.ContentType,
		"noop", opts.IsNoop(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return asset, nil
}
