package service

import (
	"context"
	"testing"

	"github.com/openpantry/pantryd/internal/pantry/domain"
	"github.com/openpantry/pantryd/internal/pantry/validate"

	"github.com/stretchr/testify/require"
)

func TestRegister_ProvisionsPantry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := registerAlice(t, env)
	require.Equal(t, domain.SecurityQuestion, user.SecurityQuestion)

	stored, err := env.store.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotEqual(t, "Abcdefg1!", stored.PasswordHash)

	pantry, err := env.store.Pantries().GetPantryByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice's pantry", pantry.Name)
}

func TestRegister_DuplicateChecksRunBeforeSemanticValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerAlice(t, env)

	// Weak password, but the taken username must win.
	_, err := env.auth.Register(ctx, RegisterParams{
		Username:       "alice",
		Email:          "other@example.com",
		Password:       "weak",
		SecurityAnswer: "fish",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, err = env.auth.Register(ctx, RegisterParams{
		Username:       "bob",
		Email:          "alice@example.com",
		Password:       "Abcdefg1!",
		SecurityAnswer: "fish",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_SemanticFailuresNameTheField(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		field  string
		params RegisterParams
	}{
		{"username", RegisterParams{Username: "al!ce", Email: "a@x.com", Password: "Abcdefg1!", SecurityAnswer: "fish"}},
		{"password", RegisterParams{Username: "alice", Email: "a@x.com", Password: "weak", SecurityAnswer: "fish"}},
		{"email", RegisterParams{Username: "alice", Email: "not-an-email", Password: "Abcdefg1!", SecurityAnswer: "fish"}},
		{"security_answer", RegisterParams{Username: "alice", Email: "a@x.com", Password: "Abcdefg1!", SecurityAnswer: "fish42"}},
	}
	for _, tc := range cases {
		_, err := env.auth.Register(ctx, tc.params)
		var verr *validate.Error
		require.ErrorAs(t, err, &verr, "field %s", tc.field)
		require.Equal(t, tc.field, verr.Field)
	}
}

func TestLogin_GenericFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerAlice(t, env)

	_, _, err := env.auth.Login(ctx, "alice", "WrongPass1!")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = env.auth.Login(ctx, "nobody", "Abcdefg1!")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := registerAlice(t, env)

	_, token, err := env.auth.Login(ctx, "alice", "Abcdefg1!")
	require.NoError(t, err)

	claims, err := env.tokens.Verify(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
}

func TestForgotPassword_GenericIdentityFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerAlice(t, env)

	err := env.auth.ForgotPassword(ctx, "nobody", "fish", "Newpass1!", "Newpass1!")
	require.ErrorIs(t, err, ErrInvalidRecovery)

	err = env.auth.ForgotPassword(ctx, "alice", "wrong", "Newpass1!", "Newpass1!")
	require.ErrorIs(t, err, ErrInvalidRecovery)
}

func TestForgotPassword_ChangesPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerAlice(t, env)

	require.NoError(t, env.auth.ForgotPassword(ctx, "alice", "fish", "Newpass1!", "Newpass1!"))

	_, _, err := env.auth.Login(ctx, "alice", "Abcdefg1!")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = env.auth.Login(ctx, "alice", "Newpass1!")
	require.NoError(t, err)
}

func TestForgotPassword_TailChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerAlice(t, env)

	err := env.auth.ForgotPassword(ctx, "alice", "fish", "weak", "weak")
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "new_password", verr.Field)

	err = env.auth.ForgotPassword(ctx, "alice", "fish", "Newpass1!", "Different1!")
	require.ErrorIs(t, err, ErrPasswordMismatch)

	err = env.auth.ForgotPassword(ctx, "alice", "fish", "Abcdefg1!", "Abcdefg1!")
	require.ErrorIs(t, err, ErrPasswordUnchanged)
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := registerAlice(t, env)

	err := env.auth.ResetPassword(ctx, user.ID, "WrongOld1!", "Newpass1!", "Newpass1!")
	require.ErrorIs(t, err, ErrWrongOldPassword)

	require.NoError(t, env.auth.ResetPassword(ctx, user.ID, "Abcdefg1!", "Newpass1!", "Newpass1!"))

	_, _, err = env.auth.Login(ctx, "alice", "Newpass1!")
	require.NoError(t, err)
}

func TestResetSecurityAnswer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := registerAlice(t, env)

	err := env.auth.ResetSecurityAnswer(ctx, user.ID, "wrong", "whale", "whale")
	require.ErrorIs(t, err, ErrWrongOldAnswer)

	err = env.auth.ResetSecurityAnswer(ctx, user.ID, "fish", "whale42", "whale42")
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "new_security_answer", verr.Field)

	err = env.auth.ResetSecurityAnswer(ctx, user.ID, "fish", "whale", "shark")
	require.ErrorIs(t, err, ErrAnswerMismatch)

	err = env.auth.ResetSecurityAnswer(ctx, user.ID, "fish", "fish", "fish")
	require.ErrorIs(t, err, ErrAnswerUnchanged)

	require.NoError(t, env.auth.ResetSecurityAnswer(ctx, user.ID, "fish", "whale", "whale"))

	// The old answer no longer proves identity on forgot-password.
	err = env.auth.ForgotPassword(ctx, "alice", "fish", "Newpass1!", "Newpass1!")
	require.ErrorIs(t, err, ErrInvalidRecovery)
	require.NoError(t, env.auth.ForgotPassword(ctx, "alice", "whale", "Newpass1!", "Newpass1!"))
}
