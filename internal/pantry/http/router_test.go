package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openpantry/pantryd/internal/pantry/service"
	"github.com/openpantry/pantryd/internal/pantry/store/drivers/sqlite"
	"github.com/openpantry/pantryd/pkg/jwtx"
	"github.com/openpantry/pantryd/pkg/slogx"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	tokens := &service.TokenService{
		Signer:   signer,
		Verifier: jwtx.NewVerifierHS256(testSecret, "pantryd-test"),
		Store:    st,
		Issuer:   "pantryd-test",
		TTL:      time.Hour,
	}

	logger := slogx.New(slogx.Config{Service: "pantryd-test", Level: "error", Format: "text"})

	r := NewRouter("test", st, logger)
	r.TokenService = tokens
	r.AuthService = &service.AuthService{Store: st, Tokens: tokens}
	r.PantryService = &service.PantryService{Store: st}
	r.ApplyRoutes()
	return r
}

func do(t *testing.T, r *Router, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func register(t *testing.T, r *Router, username, email string) {
	t.Helper()

	rec := do(t, r, http.MethodPost, "/users/register", "",
		`{"username": "`+username+`", "password": "Abcdefg1!", "email": "`+email+`", "security_answer": "fish"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func login(t *testing.T, r *Router, username, password string) string {
	t.Helper()

	rec := do(t, r, http.MethodPost, "/users/login", "",
		`{"username": "`+username+`", "password": "`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	require.Equal(t, "Bearer "+token, rec.Header().Get("Authorization"))
	return token
}

func TestAuthLifecycle(t *testing.T) {
	r := newTestRouter(t)

	// Register Alice; the mixed-case username folds to "alice".
	rec := do(t, r, http.MethodPost, "/users/register", "",
		`{"username": "Alice", "password": "Abcdefg1!", "email": "a@x.com", "security_answer": "Fish"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Equal(t, "User registered successfully", body["message"])

	// Re-register with the folded username.
	rec = do(t, r, http.MethodPost, "/users/register", "",
		`{"username": "alice", "password": "Abcdefg1!", "email": "b@x.com", "security_answer": "fish"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "Username already taken")

	token := login(t, r, "alice", "Abcdefg1!")

	// Logout, then reuse the revoked token.
	rec = do(t, r, http.MethodPost, "/users/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "User alice logged out successfully", decodeBody(t, rec)["message"])

	rec = do(t, r, http.MethodGet, "/pantry", token, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, msgRevokedToken, decodeBody(t, rec)["error"])

	// Forgot password with the case-insensitive answer, then the old
	// password fails generically and the new one works.
	rec = do(t, r, http.MethodPost, "/users/forget_password", "",
		`{"username": "alice", "security_answer": "FISH", "new_password": "Newpass1!", "confirm_password": "Newpass1!"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/users/login", "",
		`{"username": "alice", "password": "Abcdefg1!"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid username or password", decodeBody(t, rec)["error"])

	login(t, r, "alice", "Newpass1!")
}

func TestGateMessages(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/pantry", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, msgMissingToken, decodeBody(t, rec)["error"])

	rec = do(t, r, http.MethodGet, "/pantry", "garbage", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, msgInvalidToken, decodeBody(t, rec)["error"])

	// Expired token: signed with the right secret but issued two hours ago.
	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	claims := jwtx.NewSessionClaims("some-user", "ghost", time.Hour, "pantryd-test", time.Now().Add(-2*time.Hour))
	stale, err := signer.Sign(claims)
	require.NoError(t, err)

	rec = do(t, r, http.MethodGet, "/pantry", stale, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, msgExpiredToken, decodeBody(t, rec)["error"])

	// Logout with an expired token is rejected at the gate, before any
	// revocation logic runs.
	rec = do(t, r, http.MethodPost, "/users/logout", stale, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, msgExpiredToken, decodeBody(t, rec)["error"])
}

func TestValidationRejections(t *testing.T) {
	r := newTestRouter(t)

	// Duplicate key.
	rec := do(t, r, http.MethodPost, "/users/login", "",
		`{"username": "a", "username": "b", "password": "x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "more than once")

	// Unknown field.
	rec = do(t, r, http.MethodPost, "/users/login", "",
		`{"username": "a", "password": "x", "remember_me": true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "remember_me")

	// Missing field.
	rec = do(t, r, http.MethodPost, "/users/login", "", `{"username": "a"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "password")

	// Weak password names the field.
	rec = do(t, r, http.MethodPost, "/users/register", "",
		`{"username": "bob", "password": "weak", "email": "b@x.com", "security_answer": "fish"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "password:")

	// A policy-compliant password past the hashing input limit is a
	// validation failure like any other, not a server error.
	long := "Aa1!" + strings.Repeat("x", 80)
	rec = do(t, r, http.MethodPost, "/users/register", "",
		`{"username": "carol", "password": "`+long+`", "email": "c@x.com", "security_answer": "fish"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	require.Contains(t, decodeBody(t, rec)["error"], "password: ")
	require.Contains(t, decodeBody(t, rec)["error"], "at most 72")
}

func TestPantryRoutes(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice", "a@x.com")
	token := login(t, r, "alice", "Abcdefg1!")

	// Empty pantry.
	rec := do(t, r, http.MethodGet, "/pantry", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Pantry is currently empty", decodeBody(t, rec)["message"])

	// Add an item; name folds to lowercase.
	usedBy := time.Now().AddDate(0, 0, 10).Format("02-01-2006")
	rec = do(t, r, http.MethodPost, "/pantry/item", token,
		`{"item": "Rolled Oats", "used_by_date": "`+usedBy+`", "count": 2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Duplicate add.
	rec = do(t, r, http.MethodPost, "/pantry/item", token,
		`{"item": "rolled oats", "used_by_date": "`+usedBy+`", "count": 1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "already exists")

	// Quoted count must not coerce.
	rec = do(t, r, http.MethodPost, "/pantry/item", token,
		`{"item": "milk", "used_by_date": "`+usedBy+`", "count": "3"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Fetch by mixed-case path segment.
	rec = do(t, r, http.MethodGet, "/pantry/Rolled%20Oats", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item := decodeBody(t, rec)["message"].(map[string]any)
	require.Equal(t, "rolled oats", item["item"])
	require.Equal(t, usedBy, item["used_by_date"])
	require.Nil(t, item["run_out_time"])

	// Patch count to zero stamps the run-out time.
	rec = do(t, r, http.MethodPatch, "/pantry/rolled%20oats", token, `{"count": 0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody(t, rec)["item"].(map[string]any)
	require.NotNil(t, updated["run_out_time"])

	// Expiry window filter.
	rec = do(t, r, http.MethodGet, "/pantry?expiring_within=30", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	within := decodeBody(t, rec)["message"].([]any)
	require.Len(t, within, 1)

	rec = do(t, r, http.MethodGet, "/pantry?expiring_within=1", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeBody(t, rec)["message"])

	rec = do(t, r, http.MethodGet, "/pantry?expiring_within=soon", token, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Delete, then the item is gone.
	rec = do(t, r, http.MethodDelete, "/pantry/rolled%20oats", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/pantry/rolled%20oats", token, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Item doesn't exist in your pantry", decodeBody(t, rec)["error"])
}

func TestResetRoutesRequireIdentityFirst(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice", "a@x.com")
	token := login(t, r, "alice", "Abcdefg1!")

	// Wrong old password wins over the weak new password.
	rec := do(t, r, http.MethodPost, "/users/reset_password", token,
		`{"old_password": "Wrong1!aa", "new_password": "weak", "confirm_password": "weak"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid old password", decodeBody(t, rec)["error"])

	rec = do(t, r, http.MethodPost, "/users/reset_password", token,
		`{"old_password": "Abcdefg1!", "new_password": "Newpass1!", "confirm_password": "Newpass1!"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/users/reset_security_answer", token,
		`{"old_security_answer": "fish", "new_security_answer": "whale", "confirm_security_answer": "whale"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/livez", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = do(t, r, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])
}
