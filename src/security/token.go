package security

import (
	"golang.org/x/crypto/bcrypt"
)

// HashToken produces a bcrypt hash suitable for WEBHOOK_TOKEN_HASH.
func HashToken(token string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyToken reports whether the plaintext token matches the stored hash.
func VerifyToken(hash, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
