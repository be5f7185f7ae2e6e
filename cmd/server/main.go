package main

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

	"expense-api/internal/auth"
	"expense-api/internal/config"
	"expense-api/internal/handlers"
	"expense-api/internal/logging"
	"expense-api/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if cfg.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set, using the insecure default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, storage.Dialect(cfg.Database.Driver), cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	creds := auth.NewCredentials(db)
	if err := seedAdmin(ctx, db, creds, cfg.Admin, log); err != nil {
		return err
	}

	h := handlers.NewHandlers(
		creds,
		auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		storage.NewExpenseRepository(db),
		log,
		handlers.Options{RequireAuth: cfg.Auth.Required, OwnerScoped: cfg.Auth.OwnerScoped},
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			"addr", srv.Addr,
			"driver", cfg.Database.Driver,
			"auth_required", cfg.Auth.Required,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func setupRouter(h *handlers.Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Home)

	mux.HandleFunc("POST /api/register", h.Register)
	mux.HandleFunc("POST /api/login", h.Login)

	mux.Handle("GET /api/expenses", h.Protect(h.ListExpenses))
	mux.Handle("GET /api/expenses/summary", h.Protect(h.Summary))
	mux.Handle("POST /api/expenses", h.Protect(h.CreateExpense))
	mux.HandleFunc("GET /api/expenses/{id}", h.GetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", h.UpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", h.DeleteExpense)

	return h.RequestLogger(mux)
}

type userCounter interface {
	UserCount(ctx context.Context) (int, error)
}

type registrar interface {
	Register(ctx context.Context, email, password string) (int64, error)
}

// seedAdmin creates the configured admin account when no users exist yet.
func seedAdmin(ctx context.Context, users userCounter, creds registrar, admin config.AdminConfig, log *slog.Logger) error {
	if admin.Email == "" || admin.Password == "" {
		return nil
	}

	n, err := users.UserCount(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	id, err := creds.Register(ctx, admin.Email, admin.Password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Info("seeded admin user", "email", admin.Email, "id", id)
	return nil
}
