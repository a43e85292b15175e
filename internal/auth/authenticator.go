// Package auth は資格情報の検証、アクセストークンの発行と解決を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/authentication-api/internal/account"
	"github.com/yourusername/authentication-api/internal/session"
)

// DefaultTokenTTL は呼び出し側が有効期限を指定しない場合のトークン有効期限です。
const DefaultTokenTTL = 15 * time.Minute

var (
	// ErrInvalidCredentials はメールアドレスまたはパスワードが一致しない場合のエラーです。
	// アカウントが存在しない場合と区別しません。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized は提示されたトークンでアカウントを解決できない場合のエラーです。
	ErrUnauthorized = errors.New("unauthorized")
)

// AccountFinder はメールアドレスでアカウントを引きます。見つからない場合は nil を返します。
type AccountFinder interface {
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
}

// SessionStore はトークンハッシュをキーにセッションレコードを保持します。
type SessionStore interface {
	Save(ctx context.Context, key string, record session.Record, ttl time.Duration) error
	Find(ctx context.Context, key string) (*session.Record, error)
}

// PasswordVerifier はパスワードハッシュを検証します。
type PasswordVerifier interface {
	Verify(hash, plain string) bool
}

// Authenticator は資格情報・トークンと認証済みアカウントを仲介します。
// 状態は持たず、すべての状態は2つのストアにあります。
type Authenticator struct {
	accounts  AccountFinder
	sessions  SessionStore
	passwords PasswordVerifier
	secret    []byte
}

// NewAuthenticator は Authenticator を作成します。
func NewAuthenticator(accounts AccountFinder, sessions SessionStore, passwords PasswordVerifier, secret string) *Authenticator {
	return &Authenticator{
		accounts:  accounts,
		sessions:  sessions,
		passwords: passwords,
		secret:    []byte(secret),
	}
}

// AuthenticateAccount はメールアドレスとパスワードを検証し、一致したアカウントを返します。
func (a *Authenticator) AuthenticateAccount(ctx context.Context, email, password string) (*account.Account, error) {
	acc, err := a.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if acc == nil {
		return nil, ErrInvalidCredentials
	}
	if !a.passwords.Verify(acc.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return acc, nil
}

// CreateAccessToken はランダムなトークンを発行し、そのハッシュをキーにセッションを保存します。
// ttl が0以下の場合は DefaultTokenTTL を使います。生のトークンは保存しません。
func (a *Authenticator) CreateAccessToken(ctx context.Context, acc *account.Account, ttl time.Duration) (string, error) {
	if acc == nil {
		return "", errors.New("account is nil")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	key := HashToken(token, a.secret)
	if err := a.sessions.Save(ctx, key, session.Record{Email: acc.Email}, ttl); err != nil {
		return "", err
	}
	return token, nil
}

// GetAccount は提示されたトークンをアカウントに解決します。
// 未発行・期限切れ・アカウント消失はいずれも ErrUnauthorized になります。
// 参照で有効期限は延長しません。
func (a *Authenticator) GetAccount(ctx context.Context, token string) (*account.Account, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	record, err := a.sessions.Find(ctx, HashToken(token, a.secret))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrUnauthorized
	}

	acc, err := a.accounts.FindByEmail(ctx, record.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if acc == nil {
		return nil, ErrUnauthorized
	}
	return acc, nil
}
