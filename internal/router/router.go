// Package router sets up all HTTP routes and middleware chains for the
// guide site. Public pages, the login flow, and the admin endpoints share
// one middleware stack; admin endpoints add the admin guard.
package router

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"masteraccount/internal/handlers"
	"masteraccount/internal/middleware"
	"masteraccount/internal/session"
	"masteraccount/web"
)

// Options holds the settings the route tree depends on.
type Options struct {
	// Secure marks cookies Secure (production behind TLS).
	Secure bool
	// MaxBody caps request bodies in bytes.
	MaxBody int64
	// LoginLimiter throttles POST /login. Nil disables throttling.
	LoginLimiter *middleware.RateLimiter
	// UploadDir is served under /static/uploads and /uploads when set.
	UploadDir string
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, public *handlers.Public, auth *handlers.Auth, admin *handlers.Admin, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check: no session, no CSRF.
	r.Get("/health", healthHandler)

	// Stylesheet and script of every page.
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	if opts.UploadDir != "" {
		uploads := uploadsHandler(opts.UploadDir)
		r.Get("/static/uploads/*", uploads)
		r.Get("/uploads/*", uploads)
	}

	r.Group(func(r chi.Router) {
		// Body limit must run before CSRF, which parses the form.
		r.Use(middleware.LimitBody(opts.MaxBody))
		r.Use(middleware.LoadSession(sessionStore))
		r.Use(middleware.NewCSRF(opts.Secure))

		r.Get("/", public.Home)
		r.Get("/content/{platform}/{action}", public.Guide)
		r.Get("/search", public.Search)
		r.Post("/toggle_dark_mode", public.ToggleDarkMode)

		// Login and logout.
		r.With(limit(opts.LoginLimiter)).Post("/login", auth.Login)
		r.Get("/login/verify", auth.VerifyPage)
		r.With(limit(opts.LoginLimiter)).Post("/login/verify", auth.VerifySubmit)
		r.Get("/logout", auth.Logout)

		// Admin edits. Non-admins get a flash or a JSON 401.
		r.With(middleware.RequireAdmin(http.HandlerFunc(admin.DenyForm))).
			Post("/update_content", admin.UpdateContent)
		r.With(middleware.RequireAdmin(http.HandlerFunc(admin.DenyJSON))).
			Post("/remove_media", admin.RemoveMedia)
	})

	return r
}

// limit returns the rate limiting middleware of rl, or a pass-through.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// uploadsHandler serves flat files from dir. Nested paths are not found.
func uploadsHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, name))
	}
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
