package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresRepository はPostgreSQLを使用したアカウントリポジトリです。
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository は PostgresRepository を生成します。
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create はアカウントを作成し、採番されたIDを返します。
func (r *PostgresRepository) Create(ctx context.Context, account *Account) (int64, error) {
	if account == nil {
		return 0, errors.New("account is nil")
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO account (email, password, active)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		account.Email, account.PasswordHash, account.Active,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("failed to insert account: %w", err)
	}

	return id, nil
}

// FindByID は指定IDのアカウントを取得します。見つからない場合はnilを返します。
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*Account, error) {
	return r.findOne(ctx, `SELECT id, email, password, active FROM account WHERE id = $1`, id)
}

// FindByEmail はメールアドレスでアカウントを取得します。見つからない場合はnilを返します。
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, `SELECT id, email, password, active FROM account WHERE email = $1`, email)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*Account, error) {
	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&account.ID, &account.Email, &account.PasswordHash, &account.Active)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	return account, nil
}

// compile-time interface check
var _ Repository = (*PostgresRepository)(nil)
