package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// MinAPIKeyLength is the shortest API key HashAPIKey accepts.
	MinAPIKeyLength = 16
)

// HashAPIKey hashes an API key using bcrypt
func HashAPIKey(key string) (string, error) {
	if err := ValidateAPIKey(key); err != nil {
		return "", err
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckAPIKeyHash verifies an API key against a bcrypt hash
func CheckAPIKeyHash(key, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	return err == nil
}

// CheckAPIKey compares a presented key against the configured plain key and
// bcrypt hash. Either one matching is enough; empty configured values never match.
func CheckAPIKey(presented, plain, hash string) bool {
	if presented == "" {
		return false
	}
	if plain != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(plain)) == 1 {
		return true
	}
	return hash != "" && CheckAPIKeyHash(presented, hash)
}

// ValidateAPIKey checks if a key meets the minimum requirements
func ValidateAPIKey(key string) error {
	if len(key) < MinAPIKeyLength {
		return errors.New("api key is too short")
	}
	if strings.TrimSpace(key) != key {
		return errors.New("api key must not start or end with whitespace")
	}
	return nil
}
