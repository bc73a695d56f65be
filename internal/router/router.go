// Package router sets up all HTTP routes and middleware chains for the
// ServHub API. Routes are organized into public, authenticated-provider,
// and admin groups with appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"servhub/internal/handlers"
	"servhub/internal/middleware"
	"servhub/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. loginLimiter throttles password attempts;
// secure controls the CSRF cookie's Secure flag.
func New(sessionStore *session.Store, secure bool, loginLimiter *middleware.RateLimiter, categories *handlers.Categories, services *handlers.Services, auth *handlers.Auth, users *handlers.Users) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Auth endpoints — CSRF-protected, sessions optional.
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.NewCSRF(secure))

		r.Post("/register", auth.Register)
		r.With(loginLimiter.Middleware).Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		// 2FA — requires auth but NOT completed verification.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/verify", auth.TwoFAVerify)
			r.Get("/me", auth.Me)
		})
	})

	// Public catalog — read-only, no auth.
	r.Get("/api/categories", categories.List)
	r.Get("/api/categories/{id}", categories.Get)
	r.Get("/api/services", services.List)
	r.Get("/api/services/{id}", services.Get)

	// Provider area — own listings.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(secure))
		r.Use(middleware.RequireAuth)
		r.Use(middleware.Require2FA)
		r.Use(middleware.RequireProvider)

		r.Get("/api/services/mine", services.ListMine)
		r.Post("/api/services", services.Create)
		r.Put("/api/services/{id}", services.Update)
		r.Delete("/api/services/{id}", services.Delete)
		r.Post("/api/services/{id}/image", services.UploadImage)
	})

	// Admin area — category lifecycle and user management.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(secure))
		r.Use(middleware.RequireAuth)
		r.Use(middleware.Require2FA)
		r.Use(middleware.RequireAdmin)

		r.Post("/api/categories", categories.Create)
		r.Put("/api/categories/{id}", categories.Update)
		r.Delete("/api/categories/{id}", categories.Delete)
		r.Get("/api/categories/{id}/deletion-info", categories.DeletionInfo)
		r.Post("/api/categories/bulk-delete", categories.BulkDelete)
		r.Post("/api/catalog/reconcile", categories.Reconcile)
		r.Get("/api/services/orphaned", services.ListOrphaned)

		r.Route("/api/admin/users", func(r chi.Router) {
			r.Get("/", users.List)
			r.Delete("/{id}", users.Delete)
			r.Post("/{id}/reset-2fa", users.ResetTwoFA)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
