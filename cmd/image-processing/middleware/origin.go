package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mattermanifest/image-processing/common/config"
	"github.com/mattermanifest/image-processing/common/logger"
	"github.com/mattermanifest/image-processing/common/telemetry"
)

// OriginGuard rejects requests that did not come through the edge network.
// With validation off every request passes through untouched.
//
// Checks, in order:
//   - the secret header must equal the configured secret (401)
//   - the method must be GET or HEAD (400)
func OriginGuard(sec config.SecurityConfig, metrics *telemetry.Metrics, log *logger.Logger) echo.MiddlewareFunc {
	secret := []byte(sec.OriginSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !sec.ValidateOrigin {
			return next
		}

		return func(c echo.Context) error {
			req := c.Request()

			got := req.Header.Get(sec.SecretHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), secret) != 1 {
				log.WithContext(req.Context()).Warn("request not from edge", "path", req.URL.Path)
				metrics.ObserveRequest(telemetry.OutcomeUnauthorized)
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"message": "Request unauthorized",
				})
			}

			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				metrics.ObserveRequest(telemetry.OutcomeBadMethod)
				return c.JSON(http.StatusBadRequest, map[string]interface{}{
					"message": "Only GET method is supported",
				})
			}

			return next(c)
		}
	}
}
