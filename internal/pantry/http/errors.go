package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/openpantry/pantryd/internal/pantry/service"
	"github.com/openpantry/pantryd/internal/pantry/validate"
	"github.com/openpantry/pantryd/pkg/httpx"
	"github.com/openpantry/pantryd/pkg/slogx"
)

const msgServerError = "Something went wrong. Please try again later"

// writeServiceError maps service sentinels to their user-facing envelope.
// Anything unmapped is a server fault: logged, and answered generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validate.Error
	if errors.As(err, &verr) {
		httpx.WriteError(w, http.StatusBadRequest, verr.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		httpx.WriteError(w, http.StatusBadRequest, "Username already taken. Please note that usernames are case-insensitive")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusBadRequest, "Email already taken")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusBadRequest, "Invalid username or password")
	case errors.Is(err, service.ErrInvalidRecovery):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid username or security answer")
	case errors.Is(err, service.ErrWrongOldPassword):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid old password")
	case errors.Is(err, service.ErrWrongOldAnswer):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid old security answer")
	case errors.Is(err, service.ErrPasswordMismatch):
		httpx.WriteError(w, http.StatusBadRequest, "New password and confirm password do not match")
	case errors.Is(err, service.ErrPasswordUnchanged):
		httpx.WriteError(w, http.StatusBadRequest, "New password must be different from the old password")
	case errors.Is(err, service.ErrAnswerMismatch):
		httpx.WriteError(w, http.StatusBadRequest, "New security answer and confirm security answer do not match")
	case errors.Is(err, service.ErrAnswerUnchanged):
		httpx.WriteError(w, http.StatusBadRequest, "New security answer must be different from the old security answer")
	case errors.Is(err, service.ErrItemNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Item doesn't exist in your pantry")
	case errors.Is(err, service.ErrItemExists):
		httpx.WriteError(w, http.StatusBadRequest, "Item already exists in the pantry. Please note that item names are case-insensitive")
	default:
		slogx.FromContext(r.Context()).Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, msgServerError)
	}
}
