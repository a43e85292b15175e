// Package session はトークンハッシュからアカウントを引くための一時セッションストアを提供します。
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const fieldEmail = "email"

// Record はセッションストアに保存される値です。
type Record struct {
	Email string
}

// Store はセッションレコードを Redis のハッシュとして保存します。
type Store struct {
	rdb *redis.Client
}

// NewStore は Store を作成します。
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Save はレコードと有効期限を1つのトランザクションで書き込みます。
// 値だけが残って期限が付かない状態は発生しません。
func (s *Store) Save(ctx context.Context, key string, record Record, ttl time.Duration) error {
	if key == "" {
		return errors.New("session key is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive: %s", ttl)
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldEmail, record.Email)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Find はレコードを取得します。存在しない・期限切れの場合は nil を返します。
// 参照によって有効期限は延長されません。
func (s *Store) Find(ctx context.Context, key string) (*Record, error) {
	if key == "" {
		return nil, nil
	}
	values, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	email := values[fieldEmail]
	if email == "" {
		return nil, nil
	}
	return &Record{Email: email}, nil
}

// Ping はRedisへの疎通を確認します。
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
