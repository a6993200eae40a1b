package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/config"
	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h echo.HandlerFunc, mws []echo.MiddlewareFunc, key string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	require.NoError(t, h(c))
	return rec
}

func TestAPIKeyMiddleware(t *testing.T) {
	keys := []config.APIKeyConfig{{Name: "crm", Key: "k1", RPS: 7}, {Name: "billing", Key: "k2"}}

	var gotClient string
	var gotRPS any
	h := func(c echo.Context) error {
		gotClient, _ = ClientFromCtx(c)
		gotRPS = c.Get(ctxClientRPS)
		return c.NoContent(http.StatusNoContent)
	}

	rec := serve(t, h, []echo.MiddlewareFunc{APIKeyMiddleware(keys)}, "k1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "crm", gotClient)
	assert.Equal(t, 7, gotRPS)

	gotRPS = nil
	rec = serve(t, h, []echo.MiddlewareFunc{APIKeyMiddleware(keys)}, "k2")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "billing", gotClient)
	assert.Nil(t, gotRPS)

	rec = serve(t, h, []echo.MiddlewareFunc{APIKeyMiddleware(keys)}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, h, []echo.MiddlewareFunc{APIKeyMiddleware(keys)}, "k3")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyMiddleware_EmptyConfiguredKeyNeverMatches(t *testing.T) {
	h := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	rec := serve(t, h, []echo.MiddlewareFunc{APIKeyMiddleware([]config.APIKeyConfig{{Name: "x", Key: ""}})}, " ")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit_NoRedisAllows(t *testing.T) {
	h := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	mws := []echo.MiddlewareFunc{
		APIKeyMiddleware([]config.APIKeyConfig{{Name: "crm", Key: "k1"}}),
		RateLimitMiddleware(RateLimitConfig{DefaultRPS: 1}),
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(t, h, mws, "k1").Code)
	}
}

func TestRateLimit_RedisDownFailsOpen(t *testing.T) {
	rds := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rds.Close() })

	h := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	mws := []echo.MiddlewareFunc{
		APIKeyMiddleware([]config.APIKeyConfig{{Name: "crm", Key: "k1"}}),
		RateLimitMiddleware(RateLimitConfig{Redis: rds, DefaultRPS: 1}),
	}

	assert.Equal(t, http.StatusNoContent, serve(t, h, mws, "k1").Code)
}
