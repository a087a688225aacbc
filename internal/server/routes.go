package server

import (
	"emarket/internal/config"
	"emarket/internal/handler"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/", handler.Health)

	// ローカル保存のときだけ画像を配信する
	if d.Config.StorageDriver == config.StorageDriverFile && d.Config.UploadDir != "" {
		e.Static("/uploads", d.Config.UploadDir)
	}

	d.Auth.RegisterRoutes(e, d.Parser, d.Limiter)
	d.Products.RegisterRoutes(e, d.Parser)
	d.Orders.RegisterRoutes(e, d.Parser)
	d.Reviews.RegisterRoutes(e, d.Parser)
	d.Wishlist.RegisterRoutes(e, d.Parser)
}
