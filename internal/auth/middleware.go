package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/authentication-api/internal/account"
	"github.com/yourusername/authentication-api/internal/logger"
	"github.com/yourusername/authentication-api/internal/metrics"
)

// ContextAccountKey は、ハンドラー間で認証済みアカウントを共有するためのキーです。
const ContextAccountKey = "auth.account"

// TokenResolver はベアラートークンをアカウントに解決します。
type TokenResolver interface {
	GetAccount(ctx context.Context, token string) (*account.Account, error)
}

// RequireBearer は Authorization: Bearer ヘッダーを検証するミドルウェアを返します。
// 失敗理由にかかわらず同じ401応答を返します。
func RequireBearer(resolver TokenResolver, recorder metrics.Recorder) gin.HandlerFunc {
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			recorder.RecordTokenRejected()
			abortUnauthorized(c)
			return
		}

		acc, err := resolver.GetAccount(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				recorder.RecordTokenRejected()
				abortUnauthorized(c)
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Internal server error",
			})
			return
		}

		c.Set(ContextAccountKey, acc)
		c.Set(logger.ContextAccountIDKey, acc.ID)
		c.Next()
	}
}

// AccountFromContext は RequireBearer が設定したアカウントを返します。
func AccountFromContext(c *gin.Context) (*account.Account, bool) {
	v, ok := c.Get(ContextAccountKey)
	if !ok {
		return nil, false
	}
	acc, ok := v.(*account.Account)
	return acc, ok && acc != nil
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": "Could not validate credentials",
	})
}

// bearerToken は "Bearer <token>" からトークンを取り出します。スキーム名は大文字小文字を区別しません。
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
