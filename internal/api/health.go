package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "authentication-api"
	serviceVersion = "0.1.0"

	healthCheckTimeout = 2 * time.Second
)

// HealthCheck は依存先1つ分の疎通確認です。
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler はヘルスチェックエンドポイントのハンドラーです。
// いずれかの依存先が応答しない場合は503を返します。
func HealthHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := "ok"
		code := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				_ = c.Error(err)
				results[check.Name] = "unavailable"
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			results[check.Name] = "ok"
		}

		c.JSON(code, gin.H{
			"status":  status,
			"service": serviceName,
			"version": serviceVersion,
			"checks":  results,
		})
	}
}

// DiscoveryHandler はトークンエンドポイントの場所をクライアントに案内します。
func DiscoveryHandler(tokenURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"token_endpoint":                        tokenURL,
			"grant_types_supported":                 []string{"password"},
			"token_endpoint_auth_methods_supported": []string{"none"},
		})
	}
}
