package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher returned error: %v", err)
	}
	return h
}

func TestHashDiffersFromPlaintext(t *testing.T) {
	h := newTestHasher(t)

	hashed, err := h.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hashed == "pw123" {
		t.Fatal("hash must differ from plaintext")
	}
	if !strings.HasPrefix(hashed, "$2a$") {
		t.Fatalf("unexpected hash format: %s", hashed)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	hashed, err := h.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !h.Verify(hashed, "pw123") {
		t.Fatal("Verify should accept the original password")
	}
	if h.Verify(hashed, "wrong") {
		t.Fatal("Verify should reject a different password")
	}
}

func TestHashIsSalted(t *testing.T) {
	h := newTestHasher(t)

	first, _ := h.Hash("same")
	second, _ := h.Hash("same")
	if first == second {
		t.Fatal("two hashes of the same password should differ")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := newTestHasher(t)
	if h.Verify("not-a-bcrypt-hash", "pw") {
		t.Fatal("Verify should reject malformed hashes")
	}
}

func TestNewHasherRejectsInvalidCost(t *testing.T) {
	if _, err := NewHasher(bcrypt.MinCost - 1); err == nil {
		t.Fatal("expected error for too-low cost")
	}
	if _, err := NewHasher(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected error for too-high cost")
	}
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	h := newTestHasher(t)

	if _, err := h.Hash(strings.Repeat("a", MaxLength)); err != nil {
		t.Fatalf("Hash should accept %d bytes: %v", MaxLength, err)
	}
	_, err := h.Hash(strings.Repeat("a", MaxLength+1))
	if !errors.Is(err, ErrTooLong) {
		t.Fatalf("Hash error = %v, want ErrTooLong", err)
	}
}
