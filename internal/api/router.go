// Package api はHTTPルーティングとハンドラーを提供します。
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yourusername/authentication-api/internal/account"
	"github.com/yourusername/authentication-api/internal/auth"
	"github.com/yourusername/authentication-api/internal/logger"
	"github.com/yourusername/authentication-api/internal/metrics"
)

// AccountRegistrar はアカウント登録を行います。
type AccountRegistrar interface {
	Register(ctx context.Context, email, password string) (*account.Account, error)
}

// Authenticator は資格情報の検証とトークンの発行・解決を行います。
type Authenticator interface {
	auth.TokenResolver
	AuthenticateAccount(ctx context.Context, email, password string) (*account.Account, error)
	CreateAccessToken(ctx context.Context, acc *account.Account, ttl time.Duration) (string, error)
}

// Deps はルーターが必要とする依存関係です。
type Deps struct {
	Accounts      AccountRegistrar
	Authenticator Authenticator
	Throttle      *auth.LoginThrottle

	TokenTTL time.Duration
	TokenURL string

	Logger         *slog.Logger
	Recorder       metrics.Recorder
	Collector      *metrics.Collector  // nil ならHTTPメトリクスを記録しない
	Gatherer       prometheus.Gatherer // nil なら /metrics を公開しない
	HealthChecks   []HealthCheck
	AllowedOrigins []string
	TrustedProxies []string // 空なら X-Forwarded-For を無視し接続元アドレスを使う
}

// NewRouter はすべてのルートを登録した gin.Engine を返します。
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.Nop{}
	}

	router := gin.New()
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		deps.Logger.Error("invalid trusted proxies; ignoring forwarded headers",
			slog.String("error", err.Error()),
		)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(deps.Logger))
	if deps.Collector != nil {
		router.Use(deps.Collector.GinMiddleware())
	}

	if len(deps.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = deps.AllowedOrigins
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		}
		corsConfig.ExposeHeaders = []string{"WWW-Authenticate", logger.RequestIDHeader}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/health", HealthHandler(deps.HealthChecks))
	router.GET("/.well-known/oauth-authorization-server", DiscoveryHandler(deps.TokenURL))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	accounts := router.Group("/accounts")
	{
		accounts.POST("/", CreateAccountHandler(deps.Accounts, deps.Recorder))
		accounts.POST("/token", TokenHandler(deps.Authenticator, deps.Throttle, deps.TokenTTL, deps.Recorder))
		accounts.GET("/me", auth.RequireBearer(deps.Authenticator, deps.Recorder), MeHandler())
	}

	return router
}
