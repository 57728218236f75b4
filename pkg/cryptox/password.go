// Package cryptox wraps the one-way hashing used for stored secrets
// (passwords and security answers). Hashes are salted bcrypt digests;
// plaintext never reaches the store.
package cryptox

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor.
const Cost = bcrypt.DefaultCost

// MaxSecretBytes is bcrypt's input limit.
const MaxSecretBytes = 72

// ErrSecretTooLong reports input beyond bcrypt's 72-byte limit, which would
// otherwise be silently truncated.
var ErrSecretTooLong = errors.New("cryptox: secret exceeds 72 bytes")

// ErrMismatch reports that a candidate secret does not match the stored hash.
var ErrMismatch = errors.New("cryptox: secret does not match")

// HashSecret produces a salted bcrypt hash of the given secret.
func HashSecret(secret string) (string, error) {
	if len(secret) > MaxSecretBytes {
		return "", ErrSecretTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifySecret compares a candidate secret against a stored bcrypt hash.
// Returns ErrMismatch when they differ; any other error means the stored
// value is not a valid bcrypt hash.
func VerifySecret(hash, candidate string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
