package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"masteraccount/internal/auth"
	"masteraccount/internal/session"
)

// newTOTPEnv returns an environment whose admin has a TOTP secret.
func newTOTPEnv(t *testing.T) (*testEnv, string) {
	t.Helper()
	env := newTestEnv(t)

	key, err := auth.GenerateTOTP(testAdmin)
	if err != nil {
		t.Fatal(err)
	}
	hash, _ := auth.HashPassword(testPassword)
	creds, err := auth.New([]auth.Admin{{Username: testAdmin, PasswordHash: hash, TOTPSecret: key.Secret()}})
	if err != nil {
		t.Fatal(err)
	}
	env.Auth = NewAuth(env.Renderer, env.Sessions, creds, creds)
	return env, key.Secret()
}

func loginForm(user, pass string) *http.Request {
	return formRequest("/login", url.Values{"admin_user": {user}, "admin_pass": {pass}}.Encode())
}

func TestLoginRejects(t *testing.T) {
	tests := []struct {
		name string
		user string
		pass string
		want string
	}{
		{"missing both", "", "", "Username and password are required"},
		{"missing password", testAdmin, "", "Username and password are required"},
		{"wrong password", testAdmin, "nope", "Invalid credentials"},
		{"unknown user", "mallory", testPassword, "Invalid credentials"},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.Auth.Login(rec, loginForm(tt.user, tt.pass))

			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status: got %d, want 303", rec.Code)
			}
			loc, err := url.Parse(rec.Header().Get("Location"))
			if err != nil {
				t.Fatal(err)
			}
			if loc.Path != "/" || loc.Query().Get("login_error") != tt.want {
				t.Errorf("location: got %q, want /?login_error=%s", rec.Header().Get("Location"), tt.want)
			}
			for _, c := range rec.Result().Cookies() {
				if c.Name == session.CookieName {
					t.Error("failed login must not create a session")
				}
			}
		})
	}
}

func TestLoginSuccessRotatesSession(t *testing.T) {
	env := newTestEnv(t)
	visitor := env.newSession(t, &session.Data{DarkMode: true})

	rec := httptest.NewRecorder()
	env.Auth.Login(rec, withSession(loginForm(testAdmin, testPassword), visitor))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("got %d %q, want 303 /", rec.Code, rec.Header().Get("Location"))
	}

	sess := env.responseSession(t, rec)
	if !sess.IsAdmin() || sess.Username != testAdmin {
		t.Errorf("session: got %+v", sess)
	}
	if !sess.DarkMode {
		t.Error("dark mode preference should survive login")
	}
	if sess.ID == visitor.ID {
		t.Error("login must issue a new session ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: visitor.ID})
	if old, _ := env.Sessions.Get(req.Context(), req); old != nil {
		t.Error("previous session should be destroyed")
	}
}

func TestLoginWithTOTP(t *testing.T) {
	env, secret := newTOTPEnv(t)

	rec := httptest.NewRecorder()
	env.Auth.Login(rec, loginForm(testAdmin, testPassword))

	if rec.Header().Get("Location") != "/login/verify" {
		t.Fatalf("location: got %q, want /login/verify", rec.Header().Get("Location"))
	}
	pending := env.responseSession(t, rec)
	if pending.IsAdmin() || pending.PendingUser != testAdmin {
		t.Fatalf("pending session: got %+v", pending)
	}

	t.Run("verify page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.Auth.VerifyPage(rec, withSession(httptest.NewRequest(http.MethodGet, "/login/verify", nil), pending))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="code"`) {
			t.Errorf("got %d", rec.Code)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.Auth.VerifySubmit(rec, withSession(formRequest("/login/verify", "code=000000"), pending))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Invalid code") {
			t.Errorf("got %d, want the form again with an error", rec.Code)
		}
		if env.loadSession(t, pending.ID).IsAdmin() {
			t.Error("wrong code must not sign in")
		}
	})

	t.Run("valid code", func(t *testing.T) {
		code, err := totp.GenerateCode(secret, time.Now())
		if err != nil {
			t.Fatal(err)
		}
		rec := httptest.NewRecorder()
		env.Auth.VerifySubmit(rec, withSession(formRequest("/login/verify", "code="+code), pending))

		if rec.Header().Get("Location") != "/" {
			t.Fatalf("location: got %q, want /", rec.Header().Get("Location"))
		}
		sess := env.responseSession(t, rec)
		if !sess.IsAdmin() || sess.Username != testAdmin || sess.PendingUser != "" {
			t.Errorf("session: got %+v", sess)
		}
	})
}

func TestVerifyWithoutPendingLogin(t *testing.T) {
	env, _ := newTOTPEnv(t)

	for _, h := range []http.HandlerFunc{env.Auth.VerifyPage, env.Auth.VerifySubmit} {
		rec := httptest.NewRecorder()
		h(rec, formRequest("/login/verify", "code=123456"))
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
			t.Errorf("got %d %q, want 303 /", rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestLogoutKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newSession(t, &session.Data{Admin: true, Username: testAdmin, DarkMode: true})

	rec := httptest.NewRecorder()
	env.Auth.Logout(rec, withSession(httptest.NewRequest(http.MethodGet, "/logout", nil), sess))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("got %d %q, want 303 /", rec.Code, rec.Header().Get("Location"))
	}
	got := env.loadSession(t, sess.ID)
	if got.IsAdmin() || got.Username != "" || got.DarkMode {
		t.Errorf("session after logout: %+v", got)
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.Auth.Logout(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want 303", rec.Code)
	}
}
