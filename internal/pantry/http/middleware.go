package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openpantry/pantryd/internal/pantry/service"
	"github.com/openpantry/pantryd/pkg/httpx"
	"github.com/openpantry/pantryd/pkg/jwtx"
)

// Fixed gate messages, one per rejection cause. Clients key retry behaviour
// off these, so the wording is part of the API.
const (
	msgMissingToken = "No user is currently logged in. Please input token in bearer header"
	msgInvalidToken = "Invalid token. Please log in again."
	msgExpiredToken = "The token has expired. New log in is required to access route purpose"
	msgRevokedToken = "Token has been revoked. New log in is required to access route purpose"
)

// SessionGate verifies the bearer token on protected routes and stashes the
// caller's identity in the request context. Rejection order follows the
// verifier: signature, expiry, then revocation.
func SessionGate(tokens *service.TokenService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, msgMissingToken)
				return
			}

			claims, err := tokens.Verify(r.Context(), raw)
			if err != nil {
				status, msg := gateRejection(err)
				httpx.WriteError(w, status, msg)
				return
			}

			ctx := context.WithValue(r.Context(), httpx.CtxKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, httpx.CtxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func gateRejection(err error) (int, string) {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return http.StatusUnauthorized, msgExpiredToken
	case errors.Is(err, service.ErrTokenRevoked):
		return http.StatusUnauthorized, msgRevokedToken
	case errors.Is(err, jwtx.ErrMalformed),
		errors.Is(err, jwtx.ErrInvalidSig),
		errors.Is(err, jwtx.ErrNotYetValid),
		errors.Is(err, jwtx.ErrIssuer),
		errors.Is(err, jwtx.ErrInvalidClaim):
		return http.StatusUnauthorized, msgInvalidToken
	default:
		return http.StatusInternalServerError, msgServerError
	}
}

// ClaimsFromContext returns the verified session claims placed by SessionGate.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	claims, ok := ctx.Value(httpx.CtxKeyClaims).(jwtx.Claims)
	return claims, ok
}
