package service

import (
	"context"
	"testing"
	"time"

	"github.com/openpantry/pantryd/internal/pantry/domain"
	"github.com/openpantry/pantryd/internal/pantry/store/drivers/sqlite"
	"github.com/openpantry/pantryd/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

const testIssuer = "pantryd-test"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	store  *sqlite.Store
	tokens *TokenService
	auth   *AuthService
	pantry *PantryService
	signer jwtx.Signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierHS256(testSecret, testIssuer)

	tokens := &TokenService{
		Signer:   signer,
		Verifier: verifier,
		Store:    s,
		Issuer:   testIssuer,
		TTL:      time.Hour,
	}

	return &testEnv{
		store:  s,
		tokens: tokens,
		auth:   &AuthService{Store: s, Tokens: tokens},
		pantry: &PantryService{Store: s},
		signer: signer,
	}
}

func registerAlice(t *testing.T, env *testEnv) domain.User {
	t.Helper()

	user, err := env.auth.Register(context.Background(), RegisterParams{
		Username:       "alice",
		Email:          "alice@example.com",
		Password:       "Abcdefg1!",
		SecurityAnswer: "fish",
	})
	require.NoError(t, err)
	return user
}
