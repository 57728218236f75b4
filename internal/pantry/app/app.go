package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/openpantry/pantryd/internal/pantry/http"
	"github.com/openpantry/pantryd/internal/pantry/service"
	"github.com/openpantry/pantryd/internal/pantry/store"
	"github.com/openpantry/pantryd/internal/pantry/store/drivers/sqlite"
	"github.com/openpantry/pantryd/pkg/jwtx"
	"github.com/openpantry/pantryd/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the pantry service together: store, token machinery,
// services and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	tokenService  *service.TokenService
	authService   *service.AuthService
	pantryService *service.PantryService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "pantryd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("pantry service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the HTTP server and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down pantry service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("pantry service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() error {
	signer, err := jwtx.NewSignerHS256([]byte(app.cfg.TokenSecret))
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	verifier := jwtx.NewVerifierHS256([]byte(app.cfg.TokenSecret), app.cfg.Issuer)

	app.tokenService = &service.TokenService{
		Signer:   signer,
		Verifier: verifier,
		Store:    app.db,
		Issuer:   app.cfg.Issuer,
		TTL:      jwtx.DefaultSessionTTL,
	}
	app.authService = &service.AuthService{
		Store:  app.db,
		Tokens: app.tokenService,
	}
	app.pantryService = &service.PantryService{Store: app.db}

	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.TokenService = app.tokenService
	router.AuthService = app.authService
	router.PantryService = app.pantryService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
