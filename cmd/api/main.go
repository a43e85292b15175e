// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/yourusername/authentication-api/internal/config"
	"github.com/yourusername/authentication-api/internal/database"
	"github.com/yourusername/authentication-api/internal/logger"
)

// command はサブコマンドの種類です。
type command string

const (
	commandServe       command = "serve"
	commandMigrate     command = "migrate"
	commandHealthcheck command = "healthcheck"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// parseCommand は引数からサブコマンドを決定します。未指定・不明な値は serve です。
func parseCommand(args []string) command {
	if len(args) == 0 {
		return commandServe
	}
	switch command(args[0]) {
	case commandMigrate:
		return commandMigrate
	case commandHealthcheck:
		return commandHealthcheck
	default:
		return commandServe
	}
}

func run(args []string) error {
	cmd := parseCommand(args)

	// healthcheck は設定の検証を通さずにポートだけ見る
	if cmd == commandHealthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetupDefault(os.Stdout, logger.ParseLevel(cfg.LogLevel))

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.Port),
		slog.String("mode", cfg.GinMode),
	)

	switch cmd {
	case commandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runMigrate は未適用のマイグレーションを適用して終了します。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck は /health にリクエストを送り、200以外ならエラーを返します。
// コンテナのヘルスチェック用です。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
