package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"emarket/internal/config"
	"emarket/internal/handler"
	appmw "emarket/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ルート登録に必要な部品
type Deps struct {
	Config  config.Config
	Parser  appmw.TokenParser
	Limiter appmw.Limiter

	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Orders   *handler.OrderHandler
	Reviews  *handler.ReviewHandler
	Wishlist *handler.WishlistHandler
}

// 共通ミドルウェアとルートを組み立てたecho
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(d.Config.TrustedProxies)

	e.Use(echomw.Recover())
	e.Use(appmw.RequestID())
	e.Use(appmw.RequestLog())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, appmw.HeaderRequestID},
		ExposeHeaders:    []string{appmw.HeaderRequestID, echo.HeaderContentDisposition},
	}))
	// 画像 + フォーム分の余裕
	e.Use(echomw.BodyLimit(bodyLimit(d.Config.MaxUploadBytes)))

	RegisterRoutes(e, d)
	return e
}

// 信頼するプロキシが無ければ接続元IPだけを見る
func ipExtractor(trusted []string) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trusted {
		// config で検証済み
		if _, n, err := net.ParseCIDR(cidr); err == nil {
			opts = append(opts, echo.TrustIPRange(n))
		}
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// 例: 5MiB なら "6144K"
func bodyLimit(maxUpload int64) string {
	return fmt.Sprintf("%dK", maxUpload/1024+1024)
}

// ctx が終わったら受付を止め、処理中のリクエストを待つ
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", addr)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("server shutting down")
	return e.Shutdown(shutdownCtx)
}
