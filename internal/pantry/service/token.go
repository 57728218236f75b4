package service

import (
	"context"
	"errors"
	"time"

	"github.com/openpantry/pantryd/internal/pantry/domain"
	"github.com/openpantry/pantryd/internal/pantry/store"
	"github.com/openpantry/pantryd/pkg/jwtx"
)

// ErrTokenRevoked reports a structurally valid, unexpired token whose jti is
// on the revocation ledger.
var ErrTokenRevoked = errors.New("token_revoked")

// TokenService issues, verifies and revokes session tokens. Verification
// order is fixed: signature, then expiry (both inside the verifier), then
// the revocation lookup. A garbage token never reaches the ledger.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Store    store.Store
	Issuer   string
	TTL      time.Duration
}

// Issue signs a fresh session token for the user.
func (s *TokenService) Issue(ctx context.Context, user domain.User) (string, jwtx.Claims, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}

	claims := jwtx.NewSessionClaims(user.ID, user.Username, ttl, s.Issuer, time.Now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", jwtx.Claims{}, err
	}
	return token, claims, nil
}

// Verify resolves a serialized token to its claims, rejecting revoked
// tokens. jwtx sentinel errors pass through for caller-facing messaging.
func (s *TokenService) Verify(ctx context.Context, raw string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		return jwtx.Claims{}, err
	}

	revoked, err := s.Store.RevokedTokens().IsRevoked(ctx, claims.ID)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if revoked {
		return jwtx.Claims{}, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blacklists a jti. Revocation is permanent; the ledger is never
// pruned here, so a revoked token stays dead past its natural expiry.
func (s *TokenService) Revoke(ctx context.Context, jti string) error {
	return s.Store.RevokedTokens().Revoke(ctx, domain.RevokedToken{
		JTI:       jti,
		RevokedAt: time.Now().UTC(),
	})
}
