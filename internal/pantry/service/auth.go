package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openpantry/pantryd/internal/pantry/domain"
	"github.com/openpantry/pantryd/internal/pantry/store"
	"github.com/openpantry/pantryd/internal/pantry/validate"
	"github.com/openpantry/pantryd/pkg/cryptox"
	"github.com/openpantry/pantryd/pkg/idx"
	"github.com/openpantry/pantryd/pkg/slogx"
)

var (
	ErrUsernameTaken      = errors.New("username_taken")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrInvalidRecovery covers both a missing user and a wrong security
	// answer on the forgot-password flow. One sentinel, so callers cannot
	// tell which check failed.
	ErrInvalidRecovery = errors.New("invalid_recovery")

	ErrWrongOldPassword  = errors.New("wrong_old_password")
	ErrWrongOldAnswer    = errors.New("wrong_old_security_answer")
	ErrPasswordMismatch  = errors.New("password_mismatch")
	ErrPasswordUnchanged = errors.New("password_unchanged")
	ErrAnswerMismatch    = errors.New("security_answer_mismatch")
	ErrAnswerUnchanged   = errors.New("security_answer_unchanged")
)

// AuthService implements the credential lifecycle: registration, login,
// and the three change-secret flows. All string inputs except passwords are
// expected pre-normalized to lowercase by the validation pipeline.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
}

// RegisterParams are the cleaned registration fields.
type RegisterParams struct {
	Username       string
	Email          string
	Password       string
	SecurityAnswer string
}

// Register creates a user and provisions their pantry in one transaction.
// Duplicate checks run before semantic validation so a taken username is
// reported even when the rest of the payload is junk.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if err := s.checkTaken(ctx, p.Username, p.Email); err != nil {
		return domain.User{}, err
	}

	if _, err := validate.Username(p.Username); err != nil {
		return domain.User{}, fieldError("username", err)
	}
	if _, err := validate.Password(p.Password); err != nil {
		return domain.User{}, fieldError("password", err)
	}
	email, err := validate.Email(p.Email)
	if err != nil {
		return domain.User{}, fieldError("email", err)
	}
	if _, err := validate.SecurityAnswer(p.SecurityAnswer); err != nil {
		return domain.User{}, fieldError("security_answer", err)
	}

	passwordHash, err := cryptox.HashSecret(p.Password)
	if err != nil {
		return domain.User{}, err
	}
	answerHash, err := cryptox.HashSecret(p.SecurityAnswer)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:                 idx.New().String(),
		Username:           p.Username,
		Email:              email,
		PasswordHash:       passwordHash,
		SecurityQuestion:   domain.SecurityQuestion,
		SecurityAnswerHash: answerHash,
	}
	pantry := domain.Pantry{
		ID:     idx.New().String(),
		UserID: user.ID,
		Name:   user.Username + "'s pantry",
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.Pantries().CreatePantry(ctx, pantry)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent registration; the UNIQUE
			// constraint is the final arbiter. Re-check to name the field.
			if raceErr := s.checkTaken(ctx, p.Username, email); raceErr != nil {
				return domain.User{}, raceErr
			}
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}

	l.Info("user registered", slog.String("user_id", user.ID), slog.String("username", user.Username))
	return user, nil
}

// Login verifies credentials and issues a session token. Any failure maps to
// ErrInvalidCredentials; the caller never learns whether the username or the
// password was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.User, string, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, "", ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}

	if err := cryptox.VerifySecret(user.PasswordHash, password); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			l.Info("login failed", slog.String("username", username))
			return domain.User{}, "", ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}

	token, _, err := s.Tokens.Issue(ctx, user)
	if err != nil {
		return domain.User{}, "", err
	}

	l.Info("login succeeded", slog.String("user_id", user.ID))
	return user, token, nil
}

// ForgotPassword resets a password for a caller who proves identity with
// the security answer. Identity is checked before anything else so an
// unauthenticated caller learns nothing about the payload's validity.
func (s *AuthService) ForgotPassword(ctx context.Context, username, securityAnswer, newPassword, confirmPassword string) error {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidRecovery
		}
		return err
	}
	if err := cryptox.VerifySecret(user.SecurityAnswerHash, securityAnswer); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return ErrInvalidRecovery
		}
		return err
	}

	return s.setPassword(ctx, user, newPassword, confirmPassword)
}

// ResetPassword changes the password of an authenticated user who can
// supply their current one.
func (s *AuthService) ResetPassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := cryptox.VerifySecret(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return ErrWrongOldPassword
		}
		return err
	}

	return s.setPassword(ctx, user, newPassword, confirmPassword)
}

// ResetSecurityAnswer mirrors ResetPassword for the security answer.
func (s *AuthService) ResetSecurityAnswer(ctx context.Context, userID, oldAnswer, newAnswer, confirmAnswer string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := cryptox.VerifySecret(user.SecurityAnswerHash, oldAnswer); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return ErrWrongOldAnswer
		}
		return err
	}

	if _, err := validate.SecurityAnswer(newAnswer); err != nil {
		return fieldError("new_security_answer", err)
	}
	if newAnswer != confirmAnswer {
		return ErrAnswerMismatch
	}
	if err := cryptox.VerifySecret(user.SecurityAnswerHash, newAnswer); err == nil {
		return ErrAnswerUnchanged
	} else if !errors.Is(err, cryptox.ErrMismatch) {
		return err
	}

	hash, err := cryptox.HashSecret(newAnswer)
	if err != nil {
		return err
	}
	if err := s.Store.Users().UpdateSecurityAnswerHash(ctx, user.ID, hash); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("security answer changed", slog.String("user_id", user.ID))
	return nil
}

// setPassword runs the shared tail of the password-changing flows: semantic
// validation, confirm match, no-change check, then the write.
func (s *AuthService) setPassword(ctx context.Context, user domain.User, newPassword, confirmPassword string) error {
	if _, err := validate.Password(newPassword); err != nil {
		return fieldError("new_password", err)
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if err := cryptox.VerifySecret(user.PasswordHash, newPassword); err == nil {
		return ErrPasswordUnchanged
	} else if !errors.Is(err, cryptox.ErrMismatch) {
		return err
	}

	hash, err := cryptox.HashSecret(newPassword)
	if err != nil {
		return err
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password changed", slog.String("user_id", user.ID))
	return nil
}

func (s *AuthService) checkTaken(ctx context.Context, username, email string) error {
	if _, err := s.Store.Users().GetUserByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	return nil
}

func fieldError(field string, err error) *validate.Error {
	return &validate.Error{Field: field, Reason: err.Error()}
}
