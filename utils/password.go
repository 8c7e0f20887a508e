package utils

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes = 16
	keyBytes  = 64
)

// PasswordHasher derives PBKDF2-SHA512 hashes with a random salt
type PasswordHasher struct {
	Iterations int
}

// Hash returns the hex-encoded key and the hex salt it was derived with
func (h PasswordHasher) Hash(password string) (hash, salt string, err error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	salt = hex.EncodeToString(buf)
	return h.derive(password, salt), salt, nil
}

// Verify reports whether password matches the stored hash and salt
func (h PasswordHasher) Verify(password, hash, salt string) bool {
	if hash == "" || salt == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.derive(password, salt)), []byte(hash)) == 1
}

func (h PasswordHasher) derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), h.Iterations, keyBytes, sha512.New)
	return hex.EncodeToString(key)
}
