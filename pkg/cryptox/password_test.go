package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifySecret(t *testing.T) {
	t.Parallel()

	hash, err := HashSecret("Abcdefg1!")
	require.NoError(t, err)
	require.NotEqual(t, "Abcdefg1!", hash)
	require.True(t, strings.HasPrefix(hash, "$2"))

	require.NoError(t, VerifySecret(hash, "Abcdefg1!"))
	require.ErrorIs(t, VerifySecret(hash, "abcdefg1!"), ErrMismatch)
	require.ErrorIs(t, VerifySecret(hash, ""), ErrMismatch)
}

func TestHashSecretIsSalted(t *testing.T) {
	t.Parallel()

	a, err := HashSecret("same-secret")
	require.NoError(t, err)
	b, err := HashSecret("same-secret")
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	require.NoError(t, VerifySecret(a, "same-secret"))
	require.NoError(t, VerifySecret(b, "same-secret"))
}

func TestHashSecretRejectsOversizedInput(t *testing.T) {
	t.Parallel()

	_, err := HashSecret(strings.Repeat("x", 73))
	require.ErrorIs(t, err, ErrSecretTooLong)
}

func TestVerifySecretRejectsGarbageHash(t *testing.T) {
	t.Parallel()

	err := VerifySecret("not-a-bcrypt-hash", "whatever")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMismatch)
}
