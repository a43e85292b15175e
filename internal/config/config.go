// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const defaultAccessTokenExpireMinutes = 10

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// 認証DB（PostgreSQL）
	DatabaseURL    string // 接続URL（未指定時は AUTH_DB_* から組み立てる）
	AuthDBUser     string
	AuthDBPassword string
	MigrateOnStart bool // serve 起動時にマイグレーションを適用するか

	// セッションDB（Redis）
	SessionRedisURL string // 接続URL（未指定時は SESSION_DB_* から組み立てる）

	// トークン設定
	TokenHashSecret          string // トークンのハッシュ化に使う固定シークレット
	AccessTokenExpireMinutes int    // /accounts/token で発行するトークンの有効期限（分）
	TokenURL                 string // クライアントに案内するトークンエンドポイントURL

	// パスワード設定
	BcryptCost int

	// ログイン試行制限（0 で無効）
	LoginMaxAttempts   int
	LoginWindowMinutes int
	LoginLockMinutes   int

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// X-Forwarded-For を信頼するプロキシ（IPまたはCIDR、カンマ区切り）。空なら信頼しない
	TrustedProxyList string

	// 運用
	LogLevel       string
	MetricsEnabled bool
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		AuthDBUser:     getEnv("AUTH_DB_USER", ""),
		AuthDBPassword: getEnv("AUTH_DB_PASSWORD", ""),
		MigrateOnStart: getEnvAsBool("MIGRATE_ON_START", true),

		TokenHashSecret:          getEnv("TOKEN_HASH_SECRET", ""),
		AccessTokenExpireMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", defaultAccessTokenExpireMinutes),
		TokenURL:                 getEnv("TOKEN_URL", "http://localhost:8080/accounts/token"),

		BcryptCost: getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),

		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 0),
		LoginWindowMinutes: getEnvAsInt("LOGIN_WINDOW_MINUTES", 15),
		LoginLockMinutes:   getEnvAsInt("LOGIN_LOCK_MINUTES", 10),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		TrustedProxyList:   getEnv("TRUSTED_PROXIES", ""),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	config.DatabaseURL = getEnv("DATABASE_URL", buildDatabaseURL(
		config.AuthDBUser,
		config.AuthDBPassword,
		getEnv("AUTH_DB_HOST", "auth-db"),
		getEnv("AUTH_DB_PORT", "5432"),
		getEnv("AUTH_DB_NAME", "auth"),
		getEnv("AUTH_DB_SSLMODE", "disable"),
	))
	config.SessionRedisURL = getEnv("SESSION_REDIS_URL", buildRedisURL(
		getEnv("SESSION_DB_HOST", "session-db"),
		getEnv("SESSION_DB_PORT", "6379"),
		getEnvAsInt("SESSION_DB_NAME", 0),
	))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("GIN_MODE must be one of %s, %s, %s: %q", gin.DebugMode, gin.ReleaseMode, gin.TestMode, c.GinMode)
	}
	for _, proxy := range c.TrustedProxies() {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("TRUSTED_PROXIES contains an invalid IP or CIDR: %q", proxy)
			}
		}
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SessionRedisURL == "" {
		return fmt.Errorf("SESSION_REDIS_URL is required")
	}

	// ローカル開発ではシークレット未設定でも起動できる
	if c.GinMode == "release" {
		if c.TokenHashSecret == "" {
			return fmt.Errorf("TOKEN_HASH_SECRET is required in release mode")
		}
		if c.AuthDBUser == "" && os.Getenv("DATABASE_URL") == "" {
			return fmt.Errorf("AUTH_DB_USER or DATABASE_URL is required in release mode")
		}
	}

	return nil
}

// AccessTokenTTL はトークンエンドポイントで使う有効期限を返します。
func (c *Config) AccessTokenTTL() time.Duration {
	minutes := c.AccessTokenExpireMinutes
	if minutes <= 0 {
		minutes = defaultAccessTokenExpireMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。空要素は除外します。
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxies は信頼するプロキシを配列で返します。未設定なら nil です。
func (c *Config) TrustedProxies() []string {
	return splitList(c.TrustedProxyList)
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func buildDatabaseURL(user, password, host, port, name, sslmode string) string {
	u := &url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + port,
		Path:     "/" + name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

func buildRedisURL(host, port string, db int) string {
	return fmt.Sprintf("redis://%s:%s/%d", host, port, db)
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
