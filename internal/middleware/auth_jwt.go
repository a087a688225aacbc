package middleware

import (
	"net/http"
	"strings"

	"emarket/internal/infra/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // int64
	CtxUserRoleKey = "user_role" // string
)

// JWT を検証して本人情報を返す
type TokenParser interface {
	Parse(raw string) (token.Identity, error)
}

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Bearer形式か確認してtokenを抜く
			rawToken, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON(kindUnauthorized, "not authorized, no token"))
			}

			id, err := parser.Parse(rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON(kindUnauthorized, "not authorized, token failed"))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, id.UserID)
			c.Set(CtxUserRoleKey, string(id.Role))

			return next(c)
		}
	}
}

func bearerToken(authz string) (string, bool) {
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

// handler の writeError と同じ形 {error, kind}
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

const (
	kindUnauthorized = "Unauthorized"
	kindForbidden    = "Forbidden"
	kindRateLimited  = "RateLimited"
)

func errorJSON(kind, msg string) errorResponse {
	return errorResponse{Error: msg, Kind: kind}
}
