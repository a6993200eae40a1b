package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/jmehdipour/emay-gateway/internal/config"
	echo "github.com/labstack/echo/v4"
)

const (
	ctxClient    = "client"
	ctxClientRPS = "client_rps"
)

// ClientFromCtx extracts the authenticated caller name set by APIKeyMiddleware.
func ClientFromCtx(c echo.Context) (string, bool) {
	v, ok := c.Get(ctxClient).(string)
	return v, ok && v != ""
}

// APIKeyMiddleware authenticates requests using X-API-Key header against the configured keys.
// On success it stores the caller name (and its RPS override, if any) in context.
func APIKeyMiddleware(keys []config.APIKeyConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}

			k, ok := lookup(keys, key)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			}

			c.Set(ctxClient, k.Name)
			if k.RPS > 0 {
				c.Set(ctxClientRPS, k.RPS)
			}
			return next(c)
		}
	}
}

func lookup(keys []config.APIKeyConfig, key string) (config.APIKeyConfig, bool) {
	for _, k := range keys {
		if k.Key != "" && subtle.ConstantTimeCompare([]byte(k.Key), []byte(key)) == 1 {
			return k, true
		}
	}
	return config.APIKeyConfig{}, false
}
