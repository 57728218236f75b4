package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a serialized token and gives you back the claims if
// it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")

	// ErrInvalidClaim reports structurally valid tokens missing claims we
	// depend on (subject, jti).
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier validates HS256 tokens against the process-wide secret.
// The signature is always checked before any claim is trusted, so a
// garbage token never reaches the revocation lookup behind it.
type HS256Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewVerifierHS256 creates a verifier bound to the given secret. A
// non-empty issuer is enforced against the "iss" claim.
func NewVerifierHS256(secret []byte, issuer string) *HS256Verifier {
	return &HS256Verifier{
		secret: secret,
		issuer: issuer,
		leeway: 30 * time.Second, // time sync is never perfect
	}
}

// Verify parses and validates a compact token, returning its claims.
func (v *HS256Verifier) Verify(raw string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Claims{}, ErrInvalidClaim
	}
	if claims.Subject == "" || claims.ID == "" {
		return Claims{}, ErrInvalidClaim
	}

	return *claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	default:
		return ErrMalformed
	}
}
