package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{OK: true, Message: "E-Marketplace API"})
}
