package handlers

import (
	"encoding/base64"
	"io"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mattermanifest/image-processing/cmd/image-processing/models"
	"github.com/mattermanifest/image-processing/cmd/image-processing/service"
	"github.com/mattermanifest/image-processing/common/logger"
	"github.com/mattermanifest/image-processing/common/telemetry"
)

// AssetHandler serves originals and their transformations
type AssetHandler struct {
	fetcher      *service.AssetFetcher
	transformer  *service.Transformer
	cache        *service.CacheWriter
	metrics      *telemetry.Metrics
	log          *logger.Logger
	routePrefix  string
	cacheControl string
	base64Body   bool
}

// AssetHandlerConfig holds the response shaping settings
type AssetHandlerConfig struct {
	RoutePrefix  string
	CacheControl string
	Base64Body   bool
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(
	fetcher *service.AssetFetcher,
	transformer *service.Transformer,
	cache *service.CacheWriter,
	metrics *telemetry.Metrics,
	log *logger.Logger,
	cfg AssetHandlerConfig,
) *AssetHandler {
	return &AssetHandler{
		fetcher:      fetcher,
		transformer:  transformer,
		cache:        cache,
		metrics:      metrics,
		log:          log,
		routePrefix:  cfg.RoutePrefix,
		cacheControl: cfg.CacheControl,
		base64Body:   cfg.Base64Body,
	}
}

// ServeAsset answers one asset request
// GET /images/rio/1.jpeg/format=webp,width=100
func (h *AssetHandler) ServeAsset(c echo.Context) error {
	ctx := c.Request().Context()
	log := h.log.WithContext(ctx)

	// 1. Split path into original and operations
	assetPath, operations := models.ParseRequestPath(c.Request().URL.Path, h.routePrefix)
	log.Info("new asset request", "asset", assetPath, "operations", operations)

	// 2. Fetch original
	asset, err := h.fetcher.Fetch(ctx, assetPath)
	if err != nil {
		h.metrics.ObserveRequest(telemetry.OutcomeNotFound)
		return c.NoContent(http.StatusNotFound)
	}
	defer asset.Body.Close()

	log.Info("original found", "asset", assetPath, "content_type", asset.ContentType)

	// 3. Plain text is returned as is
	if isPlainText(asset.ContentType) {
		body, err := io.ReadAll(asset.Body)
		if err != nil {
			log.Warn("original read failed", "asset", assetPath, "error", err)
			h.metrics.ObserveRequest(telemetry.OutcomeNotFound)
			return c.NoContent(http.StatusNotFound)
		}
		h.metrics.ObserveRequest(telemetry.OutcomeText)
		return c.Blob(http.StatusOK, asset.ContentType, body)
	}

	// 4. Binary print assets are handed out as links
	if asset.LinkOnly {
		if asset.PresignedURL == "" {
			log.Error("missing presigned link", "asset", assetPath)
			h.metrics.ObserveRequest(telemetry.OutcomeMissingLink)
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"error": "Missing presigned",
			})
		}
		log.Info("redirecting to presigned link", "asset", assetPath)
		h.metrics.ObserveRequest(telemetry.OutcomeRedirect)
		return c.Redirect(http.StatusMovedPermanently, asset.PresignedURL)
	}

	// 5. Transform
	data, err := io.ReadAll(asset.Body)
	if err != nil {
		log.Warn("original read failed", "asset", assetPath, "error", err)
		h.metrics.ObserveRequest(telemetry.OutcomeNotFound)
		return c.NoContent(http.StatusNotFound)
	}

	transformed, err := h.transformer.Transform(ctx, assetPath, data, models.ParseOperations(operations), asset.ContentType)
	if err != nil {
		h.metrics.ObserveRequest(telemetry.OutcomeTransformFailed)
		return c.NoContent(http.StatusInternalServerError)
	}

	// 6. Cache; failures never change the response
	_ = h.cache.Store(ctx, transformed, models.CacheKey(assetPath, operations))

	// 7. Respond
	h.metrics.ObserveRequest(telemetry.OutcomeTransformed)
	c.Response().Header().Set(echo.HeaderCacheControl, h.cacheControl)

	body := transformed.Data
	if h.base64Body {
		body = make([]byte, base64.StdEncoding.EncodedLen(len(transformed.Data)))
		base64.StdEncoding.Encode(body, transformed.Data)
	}
	return c.Blob(http.StatusOK, transformed.ContentType, body)
}

func isPlainText(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/plain"
}
