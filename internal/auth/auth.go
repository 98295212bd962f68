// Package auth models the AuthInfo storage boundary (spec §3): password
// hashing and a bounded failed-login tracker. Token issuance and session
// middleware are out of scope (spec.md §1 Non-goals, carried forward by
// SPEC_FULL.md §6).
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces the bcrypt digest stored as AuthInfo.PasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
