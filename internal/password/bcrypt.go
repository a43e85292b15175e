// Package password はbcryptによるパスワードのハッシュ化と検証を提供します。
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength はbcryptが扱えるパスワードの最大バイト数です。
const MaxLength = 72

// ErrTooLong はパスワードが MaxLength バイトを超える場合のエラーです。
var ErrTooLong = errors.New("password exceeds 72 bytes")

// Hasher はbcryptでパスワードをハッシュ化・検証します。
type Hasher struct {
	cost int
}

// NewHasher は Hasher を作成します。範囲外のコストはエラーになります。
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash は平文パスワードのハッシュを返します。
func (h *Hasher) Hash(plain string) (string, error) {
	if len(plain) > MaxLength {
		return "", ErrTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify はハッシュと平文パスワードが一致するかを定数時間で比較します。
func (h *Hasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
