package util

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordCost is the bcrypt work factor for long-lived passwords.
	PasswordCost = 12
	// ResetCodeCost is the lower work factor used for short-lived numeric
	// reset codes.
	ResetCodeCost = 9
)

// HashSecret derives a salted bcrypt digest; the salt is embedded in the
// output.
func HashSecret(secret string, cost int) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("secret cannot be empty")
	}
	return bcrypt.GenerateFromPassword([]byte(secret), cost)
}

// VerifySecret compares a plaintext secret against a digest in constant
// time.
func VerifySecret(secret string, digest []byte) bool {
	if secret == "" || len(digest) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(digest, []byte(secret)) == nil
}
