package routes

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mattermanifest/image-processing/cmd/image-processing/container"
	"github.com/mattermanifest/image-processing/cmd/image-processing/handlers"
	"github.com/mattermanifest/image-processing/cmd/image-processing/middleware"
)

// RegisterAssetRoutes registers the catch-all asset route. Every method is
// routed so the origin guard, not the router, decides what is allowed.
func RegisterAssetRoutes(e *echo.Echo, c *container.Container) {
	cfg := c.Components.Config

	// Create handler with dependencies
	h := handlers.NewAssetHandler(
		c.Fetcher,
		c.Transformer,
		c.CacheWriter,
		c.Components.Metrics,
		c.Components.Logger,
		handlers.AssetHandlerConfig{
			RoutePrefix:  cfg.Service.RoutePrefix,
			CacheControl: cfg.Cache.TTL,
			Base64Body:   cfg.Service.ResponseBase64,
		},
	)

	guard := middleware.OriginGuard(cfg.Security, c.Components.Metrics, c.Components.Logger)

	prefix := strings.TrimSuffix(cfg.Service.RoutePrefix, "/")
	e.Any(prefix+"/*", h.ServeAsset, guard) // GET /images/rio/1.jpeg/format=webp,width=100
}
