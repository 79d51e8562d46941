package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/mattermanifest/image-processing/cmd/image-processing/container"
	"github.com/mattermanifest/image-processing/cmd/image-processing/middleware"
	"github.com/mattermanifest/image-processing/cmd/image-processing/routes"
	"github.com/mattermanifest/image-processing/common/bootstrap"
	"github.com/mattermanifest/image-processing/common/codec"
	"github.com/mattermanifest/image-processing/common/codec/imaging"
	"github.com/mattermanifest/image-processing/common/codec/vips"
	"github.com/mattermanifest/image-processing/common/config"
	"github.com/mattermanifest/image-processing/common/logger"
	"github.com/mattermanifest/image-processing/common/server"
)

const serviceName = "image-processing"

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

// run wires the service and blocks until the server stops
func run(ctx context.Context, opts ...bootstrap.Option) error {
	// Bootstrap common components (config, logger, metrics, reporter, telemetry)
	components, err := bootstrap.Setup(ctx, serviceName, opts...)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer components.Shutdown(ctx)

	imageCodec, closeCodec := newCodec(components.Config.Codec.Driver, components.Logger)
	defer closeCodec()

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(ctx, components, imageCodec)
	if err != nil {
		components.Logger.Error("Failed to initialize service container", "error", err)
		return fmt.Errorf("service container: %w", err)
	}
	defer serviceContainer.Close()

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e)

	// Setup health check
	setupHealthCheck(e, components)

	// Register all routes
	routes.RegisterAssetRoutes(e, serviceContainer)

	// Start server
	return startServer(e, components)
}

// newCodec picks the image codec backend and returns its release func
func newCodec(driver string, log *logger.Logger) (codec.Codec, func()) {
	if driver == config.CodecImaging {
		return imaging.New(), func() {}
	}
	c := vips.New(log)
	return c, c.Close
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": serviceName,
				"error":   err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": serviceName,
		})
	})
}

// startServer starts the Echo server on the configured port
func startServer(e *echo.Echo, components *bootstrap.Components) error {
	port := components.Config.Service.Port
	components.Logger.Info("Starting "+serviceName, "port", port)

	// Start with graceful shutdown
	if err := server.New(serviceName, port, e, components.Logger).Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
