// Package account はアカウントの永続化と登録処理を提供します。
package account

import (
	"context"
	"errors"
)

// ErrEmailTaken は登録済みのメールアドレスで作成しようとした場合のエラーです。
var ErrEmailTaken = errors.New("email already registered")

// Account は認証対象のアカウントを表します。
// PasswordHash はクライアントへ返しません。
type Account struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Active       bool   `json:"active"`
}

// Repository はアカウントの永続化インターフェースです。
type Repository interface {
	// Create はアカウントを作成し、採番されたIDを返します。
	// メールアドレスが重複している場合は ErrEmailTaken を返します。
	Create(ctx context.Context, account *Account) (int64, error)

	// FindByID は指定IDのアカウントを取得します。見つからない場合はnilを返します。
	FindByID(ctx context.Context, id int64) (*Account, error)

	// FindByEmail はメールアドレスでアカウントを取得します。見つからない場合はnilを返します。
	FindByEmail(ctx context.Context, email string) (*Account, error)
}
