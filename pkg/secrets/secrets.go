// Package secrets hashes account passwords and mints token signing keys.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	dErrors "todoweb/pkg/domain-errors"
)

// Bcrypt work factors. Tests run at MinCost.
const (
	MinCost     = bcrypt.MinCost
	DefaultCost = bcrypt.DefaultCost
	MaxCost     = bcrypt.MaxCost
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// SigningKeySize is the HS256 key length: one SHA-256 output.
const SigningKeySize = sha256.Size

// Hasher hashes and verifies passwords at a fixed bcrypt cost.
type Hasher struct {
	cost int

	decoyOnce sync.Once
	decoy     []byte
}

// NewHasher returns a hasher at cost. Costs below MinCost fall back to
// DefaultCost, costs above MaxCost are capped.
func NewHasher(cost int) *Hasher {
	switch {
	case cost < MinCost:
		cost = DefaultCost
	case cost > MaxCost:
		cost = MaxCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int {
	return h.cost
}

func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if len(password) > MaxPasswordBytes {
		return "", dErrors.New(dErrors.CodeValidation, "password must be at most 72 bytes")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash password")
	}
	return string(hashed), nil
}

// Verify checks password against hash. A mismatch is CodeUnauthorized.
func (h *Hasher) Verify(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify password")
	}
	return nil
}

// VerifyUnknown is Verify for an account that does not exist. It spends the
// same bcrypt work against a decoy hash and always fails, so response time
// does not reveal which emails are registered.
func (h *Hasher) VerifyUnknown(password string) error {
	h.decoyOnce.Do(func() {
		h.decoy, _ = bcrypt.GenerateFromPassword([]byte("decoy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.decoy, []byte(password))
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

// NewSigningKey returns SigningKeySize random bytes, base64url encoded.
func NewSigningKey() (string, error) {
	buf := make([]byte, SigningKeySize)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate signing key")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// WeakSigningKey reports whether key is shorter than an HS256 key.
func WeakSigningKey(key string) bool {
	return len(key) < SigningKeySize
}
