package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

// DefaultCodeLength gives 62^6 (about 5.7e10) codes.
const DefaultCodeLength = 6

const codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// GenerateCode returns a random code drawn uniformly from the 62 alphanumerics.
// Uniqueness is decided by the store, not here.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	max := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// ValidateAlias accepts non-empty ASCII alphanumeric codes and fails with ErrInvalidAlias otherwise.
func ValidateAlias(code string) error {
	if !aliasPattern.MatchString(code) {
		return ErrInvalidAlias
	}
	return nil
}
