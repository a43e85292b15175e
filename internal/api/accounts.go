package api

import (
	"errors"
	"net/http"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/authentication-api/internal/account"
	"github.com/yourusername/authentication-api/internal/auth"
	"github.com/yourusername/authentication-api/internal/metrics"
	"github.com/yourusername/authentication-api/internal/password"
)

type createAccountRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Username  string `form:"username" binding:"required"`
	Password  string `form:"password" binding:"required"`
	GrantType string `form:"grant_type"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateAccountHandler は POST /accounts/ のハンドラーです。
func CreateAccountHandler(registrar AccountRegistrar, recorder metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_INPUT", "email and password are required")
			return
		}

		acc, err := registrar.Register(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, account.ErrEmailTaken) {
				respondError(c, http.StatusBadRequest, "EMAIL_TAKEN", "Email already registered")
				return
			}
			if errors.Is(err, password.ErrTooLong) {
				respondError(c, http.StatusBadRequest, "INVALID_INPUT", "password must be at most 72 bytes")
				return
			}
			respondInternal(c, err)
			return
		}

		recorder.RecordAccountCreated()
		c.JSON(http.StatusOK, acc)
	}
}

// MeHandler は GET /accounts/me のハンドラーです。auth.RequireBearer の後に置きます。
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := auth.AccountFromContext(c)
		if !ok {
			respondInternal(c, errors.New("account missing from context"))
			return
		}
		c.JSON(http.StatusOK, acc)
	}
}

// TokenHandler は POST /accounts/token のハンドラーです。
// OAuth2 パスワードグラントのフォーム（username, password）を受け付けます。
func TokenHandler(authenticator Authenticator, throttle *auth.LoginThrottle, ttl time.Duration, recorder metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_INPUT", "username and password are required")
			return
		}
		if req.GrantType != "" && req.GrantType != "password" {
			respondError(c, http.StatusBadRequest, "UNSUPPORTED_GRANT_TYPE", "grant_type must be password")
			return
		}

		ip := c.ClientIP()
		if retryAfter := throttle.CheckLock(ip); retryAfter > 0 {
			c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(retryAfter.Seconds())), 10))
			respondError(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many failed login attempts")
			return
		}

		acc, err := authenticator.AuthenticateAccount(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				throttle.RecordFailure(ip)
				recorder.RecordLogin(false)
				c.Header("WWW-Authenticate", "Bearer")
				respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect username or password")
				return
			}
			respondInternal(c, err)
			return
		}

		throttle.Reset(ip)
		recorder.RecordLogin(true)

		token, err := authenticator.CreateAccessToken(c.Request.Context(), acc, ttl)
		if err != nil {
			respondInternal(c, err)
			return
		}

		recorder.RecordTokenIssued()
		c.JSON(http.StatusOK, tokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
		})
	}
}
