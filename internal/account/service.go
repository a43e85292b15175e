package account

import (
	"context"
	"fmt"
)

// PasswordHasher はパスワードを一方向ハッシュ化します。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Service はアカウント登録を担います。
type Service struct {
	repo   Repository
	hasher PasswordHasher
}

// NewService は Service を生成します。
func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
	}
}

// Register はパスワードをハッシュ化してアカウントを作成し、保存後のレコードを返します。
// 平文パスワードは保存しません。
func (s *Service) Register(ctx context.Context, email, password string) (*Account, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, &Account{
		Email:        email,
		PasswordHash: hashed,
		Active:       true,
	})
	if err != nil {
		return nil, err
	}

	// DB側のデフォルト値を反映するため読み直す
	created, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("account %d vanished after insert", id)
	}
	return created, nil
}
