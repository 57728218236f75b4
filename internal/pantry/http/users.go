package http

import (
	"net/http"

	"github.com/openpantry/pantryd/internal/pantry/service"
	"github.com/openpantry/pantryd/pkg/httpx"
)

// UsersHandler serves the credential lifecycle routes under /users.
type UsersHandler struct {
	AuthService  *service.AuthService
	TokenService *service.TokenService
}

// HandleRegister creates a user and their pantry.
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	values := parseBody(w, r, registerSchema)
	if values == nil {
		return
	}

	user, err := h.AuthService.Register(r.Context(), service.RegisterParams{
		Username:       values.String("username"),
		Email:          values.String("email"),
		Password:       values.String("password"),
		SecurityAnswer: values.String("security_answer"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteMessage(w, http.StatusCreated, "User registered successfully", map[string]any{
		"user": map[string]string{
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// HandleLogin verifies credentials and hands out a session token, both in
// the body and as a bearer Authorization header.
func (h *UsersHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	values := parseBody(w, r, loginSchema)
	if values == nil {
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), values.String("username"), values.String("password"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	httpx.WriteMessage(w, http.StatusOK, "Login successful with "+user.Username, map[string]any{
		"access_token": token,
	})
}

// HandleLogout revokes the presented token. The session gate has already
// verified it, so an expired or garbage token never reaches this point.
func (h *UsersHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, msgMissingToken)
		return
	}

	if err := h.TokenService.Revoke(r.Context(), claims.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "User "+claims.Username+" logged out successfully", nil)
}

// HandleForgotPassword resets a password against the security answer.
func (h *UsersHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	values := parseBody(w, r, forgotPasswordSchema)
	if values == nil {
		return
	}

	err := h.AuthService.ForgotPassword(r.Context(),
		values.String("username"),
		values.String("security_answer"),
		values.String("new_password"),
		values.String("confirm_password"),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Password reset successfully", nil)
}

// HandleResetPassword changes the authenticated user's password.
func (h *UsersHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	values := parseBody(w, r, resetPasswordSchema)
	if values == nil {
		return
	}

	err := h.AuthService.ResetPassword(r.Context(),
		httpx.UserIDFromContext(r.Context()),
		values.String("old_password"),
		values.String("new_password"),
		values.String("confirm_password"),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Password reset successfully", nil)
}

// HandleResetSecurityAnswer changes the authenticated user's security answer.
func (h *UsersHandler) HandleResetSecurityAnswer(w http.ResponseWriter, r *http.Request) {
	values := parseBody(w, r, resetAnswerSchema)
	if values == nil {
		return
	}

	err := h.AuthService.ResetSecurityAnswer(r.Context(),
		httpx.UserIDFromContext(r.Context()),
		values.String("old_security_answer"),
		values.String("new_security_answer"),
		values.String("confirm_security_answer"),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Security answer reset successfully", nil)
}
