// Package auth implements registration and credential checks.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultLegacySalt is the salt of legacy SHA-256 hashes when APP_AUTH_SALT is unset.
const DefaultLegacySalt = "❄auth_salt"

// Hasher produces bcrypt hashes and verifies both bcrypt and legacy
// salted SHA-256 hashes.
type Hasher struct {
	cost       int
	legacySalt string
}

// NewHasher returns a Hasher using the given bcrypt cost. legacySalt is only
// used to verify SHA-256 hashes from older user rows.
func NewHasher(cost int, legacySalt string) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost, legacySalt: legacySalt}, nil
}

// Hash returns a bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Check reports whether password matches stored.
func (h *Hasher) Check(password, stored string) bool {
	if password == "" || stored == "" {
		return false
	}
	if isLegacyHash(stored) {
		want := h.legacyHash(password)
		return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(stored))) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// legacyHash is hex(sha256(password + salt)).
func (h *Hasher) legacyHash(password string) string {
	sum := sha256.Sum256([]byte(password + h.legacySalt))
	return hex.EncodeToString(sum[:])
}

func isLegacyHash(stored string) bool {
	if len(stored) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(stored)
	return err == nil
}
