package middleware

import (
	"fmt"
	"net/http"

	"emarket/internal/domain/model"

	"github.com/labstack/echo/v4"
)

//contextに入っているroleが指定どおりかを確認します。

func RoleGuard(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got, ok := c.Get(CtxUserRoleKey).(string)
			if !ok || got == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON(kindUnauthorized, "unauthorized"))
			}
			if model.Role(got) != role {
				return c.JSON(http.StatusForbidden, errorJSON(kindForbidden, fmt.Sprintf("access denied, %s only", role)))
			}
			return next(c)
		}
	}
}
