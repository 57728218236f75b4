package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign session tokens.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// MinSecretBytes is the shortest signing secret we accept. HMAC secrets
// shorter than the hash output weaken the whole scheme.
const MinSecretBytes = 32

// ErrWeakSecret reports a signing secret below MinSecretBytes.
var ErrWeakSecret = errors.New("jwtx: signing secret must be at least 32 bytes")

// HS256Signer signs tokens with a process-wide HMAC-SHA256 secret.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 creates an HS256 signer from the raw secret bytes.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrWeakSecret
	}
	return &HS256Signer{secret: secret}, nil
}

func (s *HS256Signer) Alg() string { return "HS256" }

// Sign produces the compact serialized token for the given claims.
func (s *HS256Signer) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}
