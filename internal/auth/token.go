package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const tokenBytes = 32

// HashToken はセッションストアのキーを返します。
// キーは hex(sha256(secret || token)) で、同じトークンからは常に同じキーになります。
func HashToken(token string, secret []byte) string {
	h := sha256.New()
	h.Write(secret)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
