package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"masteraccount/internal/auth"
	"masteraccount/internal/middleware"
	"masteraccount/internal/render"
	"masteraccount/internal/session"
)

const (
	msgLoginRequired = "Username and password are required"
	msgLoginInvalid  = "Invalid credentials"
)

// TOTPSecrets looks up the second-factor secret of an admin.
type TOTPSecrets interface {
	TOTPSecret(username string) (string, bool)
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	verifier auth.Verifier
	secrets  TOTPSecrets
}

// NewAuth creates a new Auth handler group. secrets may be nil, in which
// case no admin is asked for a TOTP code.
func NewAuth(renderer *render.Renderer, sessions *session.Store, verifier auth.Verifier, secrets TOTPSecrets) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		verifier: verifier,
		secrets:  secrets,
	}
}

// Login processes the login form on the home page. Admins with a TOTP
// secret continue to the verification step; everyone else is signed in.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("admin_user")
	password := r.FormValue("admin_pass")

	if username == "" || password == "" {
		redirectLoginError(w, r, msgLoginRequired)
		return
	}
	if !a.verifier.Verify(username, password) {
		slog.Warn("admin login failed", "username", username, "remote", middleware.ClientIP(r))
		redirectLoginError(w, r, msgLoginInvalid)
		return
	}

	next := &session.Data{}
	target := "/"
	if _, ok := a.totpSecret(username); ok {
		next.PendingUser = username
		target = "/login/verify"
	} else {
		next.Admin = true
		next.Username = username
	}

	if err := a.rotate(w, r, next); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if next.Admin {
		slog.Info("admin signed in", "username", username)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// VerifyPage renders the TOTP code form for a login in progress.
func (a *Auth) VerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.PendingUser == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
	})
}

// VerifySubmit validates the TOTP code and completes the login.
func (a *Auth) VerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.PendingUser == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	username := sess.PendingUser
	secret, ok := a.totpSecret(username)
	if !ok {
		// The secret was removed since the password step.
		sess.PendingUser = ""
		if err := a.sessions.Update(r.Context(), sess); err != nil {
			slog.Warn("session update failed", "error", err)
		}
		redirectLoginError(w, r, msgLoginInvalid)
		return
	}

	if !auth.ValidateCode(r.FormValue("code"), secret) {
		slog.Warn("totp verification failed", "username", username, "remote", middleware.ClientIP(r))
		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title: "Two-Factor Authentication",
			Data:  map[string]any{"Error": "Invalid code. Please try again."},
		})
		return
	}

	if err := a.rotate(w, r, &session.Data{Admin: true, Username: username}); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	slog.Info("admin signed in", "username", username, "totp", true)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout signs the admin out. The session itself survives, so pending
// flashes are kept; the dark mode preference is reset.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		sess.Admin = false
		sess.Username = ""
		sess.PendingUser = ""
		sess.DarkMode = false
		if err := a.sessions.Update(r.Context(), sess); err != nil {
			slog.Error("session update failed", "error", err)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// rotate replaces the current session with next under a new ID, carrying
// over the dark mode preference.
func (a *Auth) rotate(w http.ResponseWriter, r *http.Request, next *session.Data) error {
	if prev := middleware.SessionFromCtx(r.Context()); prev != nil {
		next.DarkMode = prev.DarkMode
		if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
			slog.Warn("session destroy failed", "error", err)
		}
	}
	_, err := a.sessions.Create(r.Context(), w, next)
	return err
}

func (a *Auth) totpSecret(username string) (string, bool) {
	if a.secrets == nil {
		return "", false
	}
	return a.secrets.TOTPSecret(username)
}

func redirectLoginError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?login_error="+url.QueryEscape(msg), http.StatusSeeOther)
}
