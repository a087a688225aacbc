package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emarket/internal/config"
	"emarket/internal/handler"
	"emarket/internal/infra/db"
	infraRepo "emarket/internal/infra/repository"
	"emarket/internal/infra/storage"
	"emarket/internal/infra/token"
	"emarket/internal/logging"
	appmw "emarket/internal/middleware"
	"emarket/internal/ratelimit"
	"emarket/internal/server"
	"emarket/internal/usecase"
	auth "emarket/internal/usecase/auth_usecase"
	"emarket/internal/validator"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel, os.Stdout)

	// 金額は数値でJSONに出す
	decimal.MarshalJSONWithoutQuotes = true

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	//DB接続
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	tx := infraRepo.NewTxManagerGorm(gormDB)

	assets, err := newObjectStore(cfg)
	if err != nil {
		return err
	}

	limiter, err := newLimiter(cfg)
	if err != nil {
		return err
	}

	//usecaseに渡す部品
	jwtSvc := token.NewJWT(cfg.SigningSecret(), cfg.JWTTTL)
	v := validator.NewAuthValidator()
	clock := auth.SystemClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, v, hasher, jwtSvc, clock)
	loginUC := auth.NewLoginUsecase(userRepo, v, verifier, jwtSvc, clock)
	profileUC := auth.NewProfileUsecase(userRepo, v, hasher, verifier, clock)

	productUC := usecase.NewProductUsecase(productRepo, tx, assets, cfg.MaxUploadBytes)
	orderUC := usecase.NewOrderUsecase(tx)
	reviewUC := usecase.NewReviewUsecase(tx, cfg.ReviewRequirePurchasedProduct)
	wishlistUC := usecase.NewWishlistUsecase(tx)

	//Handler生成
	e := server.New(server.Deps{
		Config:   cfg,
		Parser:   jwtSvc,
		Limiter:  limiter,
		Auth:     handler.NewAuthHandler(registerUC, loginUC, profileUC),
		Products: handler.NewProductHandler(productUC),
		Orders:   handler.NewOrderHandler(orderUC),
		Reviews:  handler.NewReviewHandler(reviewUC),
		Wishlist: handler.NewWishlistHandler(wishlistUC),
	})

	//Server起動
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, e, cfg.Addr())
}

func newObjectStore(cfg config.Config) (storage.ObjectStore, error) {
	if cfg.StorageDriver == config.StorageDriverMinio {
		return storage.NewMinioStore(storage.MinioConfig{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MinioPublicBaseURL,
		})
	}
	return storage.NewFileStore(cfg.UploadDir, "/uploads")
}

// REDIS_ADDR が無ければ制限なし（nil を返す）
func newLimiter(cfg config.Config) (appmw.Limiter, error) {
	if cfg.RedisAddr == "" {
		slog.Warn("REDIS_ADDR not set; auth rate limit disabled")
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	l, err := ratelimit.NewFixedWindowLimiter(client, "emarket:ratelimit", cfg.AuthRateLimitPerMinute, time.Minute)
	if err != nil {
		return nil, err
	}
	return l, nil
}
