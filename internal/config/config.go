package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string `yaml:"port"`  // サーバーポート（8080）
	GoEnv string `yaml:"goEnv"` // dev/prod

	//DATABASE_URL があれば最優先
	DatabaseURL      string `yaml:"databaseURL"`
	PostgresUser     string `yaml:"postgresUser"`
	PostgresPassword string `yaml:"postgresPassword"`
	PostgresDB       string `yaml:"postgresDB"`
	PostgresHost     string `yaml:"postgresHost"`
	PostgresPort     int    `yaml:"postgresPort"`
	PostgresSSLMode  string `yaml:"postgresSSLMode"`

	JWTSecret string        `yaml:"jwtSecret"` // JWT署名シークレット
	JWTTTL    time.Duration `yaml:"jwtTTL"`    // トークンの有効期限（既定7日）

	CORSOrigins []string `yaml:"corsOrigins"`
	//X-Forwarded-For を信用するプロキシの CIDR。空なら接続元IPを使う
	TrustedProxies []string `yaml:"trustedProxies"`
	LogLevel    string   `yaml:"logLevel"`

	//file / minio
	StorageDriver      string `yaml:"storageDriver"`
	UploadDir          string `yaml:"uploadDir"`
	MaxUploadBytes     int64  `yaml:"maxUploadBytes"`
	MinioEndpoint      string `yaml:"minioEndpoint"`
	MinioAccessKey     string `yaml:"minioAccessKey"`
	MinioSecretKey     string `yaml:"minioSecretKey"`
	MinioBucket        string `yaml:"minioBucket"`
	MinioUseSSL        bool   `yaml:"minioUseSSL"`
	MinioPublicBaseURL string `yaml:"minioPublicBaseURL"`

	//空なら認証APIのレート制限なし
	RedisAddr              string `yaml:"redisAddr"`
	RedisPassword          string `yaml:"redisPassword"`
	AuthRateLimitPerMinute int    `yaml:"authRateLimitPerMinute"`

	//true ならレビュー対象の商品が注文に含まれている必要がある
	ReviewRequirePurchasedProduct bool `yaml:"reviewRequirePurchasedProduct"`
}

const (
	StorageDriverFile  = "file"
	StorageDriverMinio = "minio"
)

func defaults() Config {
	return Config{
		Port:                   "5000",
		GoEnv:                  "dev",
		PostgresUser:           "postgres",
		PostgresPassword:       "postgres",
		PostgresDB:             "emarket",
		PostgresHost:           "localhost",
		PostgresPort:           5432,
		PostgresSSLMode:        "disable",
		JWTTTL:                 7 * 24 * time.Hour,
		CORSOrigins:            []string{"http://localhost:5173"},
		LogLevel:               "info",
		StorageDriver:          StorageDriverFile,
		UploadDir:              "uploads",
		MaxUploadBytes:         5 << 20,
		MinioBucket:            "product-images",
		AuthRateLimitPerMinute: 20,
	}
}

// Loadは .env → CONFIG_FILE(yaml) → 環境変数 の順に重ねる
func Load() (Config, error) {
	// .env は無くてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.GoEnv, "GO_ENV")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.PostgresUser, "POSTGRES_USER")
	setString(&cfg.PostgresPassword, "POSTGRES_PASSWORD")
	setString(&cfg.PostgresDB, "POSTGRES_DB")
	setString(&cfg.PostgresHost, "POSTGRES_HOST")
	setString(&cfg.PostgresSSLMode, "POSTGRES_SSLMODE")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.StorageDriver, "STORAGE_DRIVER")
	setString(&cfg.UploadDir, "UPLOAD_DIR")
	setString(&cfg.MinioEndpoint, "MINIO_ENDPOINT")
	setString(&cfg.MinioAccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.MinioSecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.MinioBucket, "MINIO_BUCKET")
	setString(&cfg.MinioPublicBaseURL, "MINIO_PUBLIC_BASE_URL")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")

	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POSTGRES_PORT must be number: %w", err)
		}
		cfg.PostgresPort = n
	}
	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_TTL must be duration: %w", err)
		}
		cfg.JWTTTL = d
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES must be number: %w", err)
		}
		cfg.MaxUploadBytes = n
	}
	if v := os.Getenv("AUTH_RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_LIMIT_PER_MINUTE must be number: %w", err)
		}
		cfg.AuthRateLimitPerMinute = n
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		cfg.MinioUseSSL = v == "true"
	}
	if v := os.Getenv("REVIEW_REQUIRE_PURCHASED_PRODUCT"); v != "" {
		cfg.ReviewRequirePurchasedProduct = v == "true"
	}
	return nil
}

func validate(cfg Config) error {
	//dev 以外はシークレット必須
	if cfg.JWTSecret == "" && cfg.GoEnv != "dev" {
		return errors.New("JWT_SECRET is required")
	}
	if cfg.Port == "" {
		return errors.New("PORT is required")
	}
	if cfg.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	for _, cidr := range cfg.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q", cidr)
		}
	}
	switch cfg.StorageDriver {
	case StorageDriverFile:
		if cfg.UploadDir == "" {
			return errors.New("UPLOAD_DIR is required")
		}
	case StorageDriverMinio:
		if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER: %q", cfg.StorageDriver)
	}
	return nil
}

// DATABASE_URL がなければ POSTGRES_* から組み立てる
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// 開発環境ではシークレットが空でも動かす
func (c Config) SigningSecret() string {
	if c.JWTSecret == "" {
		return "dev_secret_change_me"
	}
	return c.JWTSecret
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
