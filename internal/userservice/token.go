package userservice

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
)

// tokenLength is the length of a base32 encoded 16 byte token.
const tokenLength = 26

func hashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}

func newToken() (string, []byte, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", nil, err
	}

	plain := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)

	return plain, hashToken(plain), nil
}
