package middleware

import (
	"log/slog"
	"strings"
	"time"

	"emarket/internal/logging"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	HeaderRequestID   = "X-Request-Id"
	CtxRequestIDKey   = "request_id"
	maxRequestIDBytes = 128
)

// 受け取った X-Request-Id を引き継ぐ。なければ作る。
// request_id つきのロガーを request context に入れる
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(HeaderRequestID))
			if id == "" || len(id) > maxRequestIDBytes {
				id = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, id)
			c.Set(CtxRequestIDKey, id)

			req := c.Request()
			ctx := logging.WithLogger(req.Context(), slog.Default().With("request_id", id))
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// 1リクエスト1行の http_request ログ
func RequestLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// ステータスを確定させる
				c.Error(err)
			}

			id, _ := c.Get(CtxRequestIDKey).(string)
			slog.Info(
				"http_request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", id,
			)
			return nil
		}
	}
}
