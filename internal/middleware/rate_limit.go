package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// クライアントIPごとの回数制限。limiter が nil なら素通し
func RateLimit(limiter Limiter, scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			if !limiter.Allow(c.Request().Context(), scope+":"+clientIP(c)) {
				return c.JSON(http.StatusTooManyRequests, errorJSON(kindRateLimited, "too many requests"))
			}
			return next(c)
		}
	}
}

// IPExtractor が未設定なら X-Forwarded-For は信用せず接続元を使う
func clientIP(c echo.Context) string {
	if c.Echo().IPExtractor != nil {
		return c.RealIP()
	}
	return echo.ExtractIPDirect()(c.Request())
}
