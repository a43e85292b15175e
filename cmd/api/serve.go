package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/authentication-api/internal/account"
	"github.com/yourusername/authentication-api/internal/api"
	"github.com/yourusername/authentication-api/internal/auth"
	"github.com/yourusername/authentication-api/internal/config"
	"github.com/yourusername/authentication-api/internal/database"
	"github.com/yourusername/authentication-api/internal/metrics"
	"github.com/yourusername/authentication-api/internal/password"
	"github.com/yourusername/authentication-api/internal/session"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

// runServe は依存関係を組み立ててAPIサーバーを起動します。
// SIGINT または SIGTERM を受け取るとグレースフルシャットダウンします。
func runServe(cfg *config.Config) error {
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := openSessionRedis(ctx, cfg.SessionRedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	if cfg.TokenHashSecret == "" {
		slog.Warn("TOKEN_HASH_SECRET is empty; tokens are hashed without a secret")
	}

	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}

	accounts := account.NewPostgresRepository(db)
	sessions := session.NewStore(rdb)
	authenticator := auth.NewAuthenticator(accounts, sessions, hasher, cfg.TokenHashSecret)

	deps := api.Deps{
		Accounts:      account.NewService(accounts, hasher),
		Authenticator: authenticator,
		Throttle: auth.NewLoginThrottle(
			cfg.LoginMaxAttempts,
			time.Duration(cfg.LoginWindowMinutes)*time.Minute,
			time.Duration(cfg.LoginLockMinutes)*time.Minute,
		),
		TokenTTL:       cfg.AccessTokenTTL(),
		TokenURL:       cfg.TokenURL,
		Logger:         slog.Default(),
		AllowedOrigins: cfg.AllowedOrigins(),
		TrustedProxies: cfg.TrustedProxies(),
		HealthChecks: []api.HealthCheck{
			{Name: "database", Ping: db.PingContext},
			{Name: "session_store", Ping: sessions.Ping},
		},
	}

	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector := metrics.NewCollector(registry)
		deps.Recorder = collector
		deps.Collector = collector
		deps.Gatherer = registry
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// openDatabase は認証DBに接続し、設定されていればマイグレーションを適用します。
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", maskDatabaseURL(cfg.DatabaseURL), err)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations applied")
	}
	return db, nil
}

// openSessionRedis はセッションストア用のRedisクライアントを作成し、疎通を確認します。
func openSessionRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_REDIS_URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to session store %s: %w", opt.Addr, err)
	}
	slog.Info("session store connection established", slog.String("addr", opt.Addr))
	return rdb, nil
}

// maskDatabaseURL は接続URLからパスワードを伏せた文字列を返します。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}
