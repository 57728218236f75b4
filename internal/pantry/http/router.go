package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/openpantry/pantryd/internal/pantry/service"
	"github.com/openpantry/pantryd/internal/pantry/store"
	"github.com/openpantry/pantryd/pkg/httpx"
	"github.com/openpantry/pantryd/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	TokenService  *service.TokenService
	AuthService   *service.AuthService
	PantryService *service.PantryService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerPantry()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		AuthService:  r.AuthService,
		TokenService: r.TokenService,
	}

	// Unauthenticated credential endpoints get the strict per-IP limit to
	// slow brute forcing.
	r.Mux.Handle("POST /users/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /users/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /users/forget_password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /users/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			SessionGate(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /users/reset_password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			SessionGate(r.TokenService),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /users/reset_security_answer",
		httpx.Chain(http.HandlerFunc(h.HandleResetSecurityAnswer),
			SessionGate(r.TokenService),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPantry() {
	h := &PantryHandler{PantryService: r.PantryService}

	gate := SessionGate(r.TokenService)

	r.Mux.Handle("GET /pantry",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			gate,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /pantry/{item}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			gate,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /pantry/item",
		httpx.Chain(http.HandlerFunc(h.HandleAdd),
			gate,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PATCH /pantry/{item}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			gate,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /pantry/{item}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			gate,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
