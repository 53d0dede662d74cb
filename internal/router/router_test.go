// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"masteraccount/internal/auth"
	"masteraccount/internal/catalog"
	"masteraccount/internal/content"
	"masteraccount/internal/handlers"
	"masteraccount/internal/middleware"
	"masteraccount/internal/render"
	"masteraccount/internal/session"
	"masteraccount/internal/storage"
)

const (
	testAdmin    = "editor"
	testPassword = "s3cret-pass"
)

type testSite struct {
	handler http.Handler
	repo    *content.Repository
	dir     string
}

func newTestSite(t *testing.T, maxBody int64, loginLimit int) *testSite {
	t.Helper()

	dir := t.TempDir()
	uploads, err := storage.NewLocal(dir, "/static/uploads")
	if err != nil {
		t.Fatal(err)
	}
	renderer, err := render.New(uploads)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	creds, err := auth.New([]auth.Admin{{Username: testAdmin, PasswordHash: hash}})
	if err != nil {
		t.Fatal(err)
	}

	repo := content.NewRepository(content.NewMemoryStore(), catalog.Default())
	sessions := session.NewStore(session.NewMemoryBackend(), false)
	limiter := middleware.NewRateLimiter(loginLimit, time.Minute)
	t.Cleanup(limiter.Stop)

	h := New(sessions,
		handlers.NewPublic(renderer, repo, sessions, nil, nil, nil),
		handlers.NewAuth(renderer, sessions, creds, creds),
		handlers.NewAdmin(repo, uploads, sessions, nil, maxBody),
		Options{MaxBody: maxBody, LoginLimiter: limiter, UploadDir: dir},
	)
	return &testSite{handler: h, repo: repo, dir: dir}
}

// browser keeps cookies between requests like a user agent would.
type browser struct {
	t       *testing.T
	site    *testSite
	cookies map[string]*http.Cookie
}

func (s *testSite) browser(t *testing.T) *browser {
	return &browser{t: t, site: s, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.site.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) csrf() string {
	c, ok := b.cookies[middleware.CSRFCookieName]
	if !ok {
		b.get("/")
		c = b.cookies[middleware.CSRFCookieName]
	}
	return c.Value
}

func (b *browser) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	form.Set("csrf_token", b.csrf())
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postJSON(target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.CSRFHeaderName, b.csrf())
	return b.do(req)
}

func (b *browser) login() {
	b.t.Helper()
	rec := b.postForm("/login", url.Values{"admin_user": {testAdmin}, "admin_pass": {testPassword}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		b.t.Fatalf("login: got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

func TestPublicRoutes(t *testing.T) {
	site := newTestSite(t, 1<<20, 10)
	b := site.browser(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/", http.StatusOK},
		{"/health", http.StatusOK},
		{"/content/YouTube/create_account", http.StatusOK},
		{"/content/YouTube/unknown", http.StatusSeeOther},
		{"/search?q=reddit", http.StatusOK},
		{"/logout", http.StatusSeeOther},
		{"/login/verify", http.StatusSeeOther},
		{"/no/such/page", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := b.get(tt.path)
		if rec.Code != tt.status {
			t.Errorf("GET %s: got %d, want %d", tt.path, rec.Code, tt.status)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("GET %s: security headers missing", tt.path)
		}
	}
}

func TestCSRFRequiredForPosts(t *testing.T) {
	site := newTestSite(t, 1<<20, 10)

	for _, path := range []string{"/login", "/toggle_dark_mode", "/update_content", "/remove_media"} {
		rec := httptest.NewRecorder()
		site.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader("")))
		if rec.Code != http.StatusForbidden {
			t.Errorf("POST %s without token: got %d, want 403", path, rec.Code)
		}
	}
}

func TestAdminRoutesDenyVisitors(t *testing.T) {
	site := newTestSite(t, 1<<20, 10)
	b := site.browser(t)

	rec := b.postForm("/update_content", url.Values{"platform": {"YouTube"}, "action_type": {"create_account"}, "content_text": {"hacked"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Errorf("update_content: got %d %q, want 303 /", rec.Code, rec.Header().Get("Location"))
	}
	if !strings.Contains(b.get("/").Body.String(), "Unauthorized access") {
		t.Error("unauthorized flash not shown")
	}

	rec = b.postJSON("/remove_media", `{"platform":"YouTube","action":"create_account","media_type":"image","index":0}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("remove_media: got %d, want 401", rec.Code)
	}

	e, _ := site.repo.Entry("YouTube", "create_account")
	if e.Text == "hacked" {
		t.Error("visitor edit was applied")
	}
}

func TestAdminEditFlow(t *testing.T) {
	site := newTestSite(t, 1<<20, 10)
	b := site.browser(t)
	b.login()

	rec := b.postForm("/update_content", url.Values{
		"platform":     {"Threads"},
		"action_type":  {"create_account"},
		"content_text": {"Download the app"},
		"image_urls":   {"https://img.example.com/a.png"},
	})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/#admin" {
		t.Fatalf("update_content: got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	page := b.get("/content/Threads/create_account").Body.String()
	if !strings.Contains(page, "Download the app") || !strings.Contains(page, "https://img.example.com/a.png") {
		t.Error("edit not visible on the guide page")
	}

	rec = b.postJSON("/remove_media", `{"platform":"Threads","action":"create_account","media_type":"image","index":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove_media: got %d %s", rec.Code, rec.Body.String())
	}
	if e, _ := site.repo.Entry("Threads", "create_account"); len(e.Images) != 0 {
		t.Errorf("images: got %v", e.Images)
	}

	b.get("/logout")
	rec = b.postJSON("/remove_media", `{"platform":"Threads","action":"create_account","media_type":"image","index":0}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("after logout: got %d, want 401", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	site := newTestSite(t, 1<<20, 2)
	b := site.browser(t)

	var last int
	for i := 0; i < 3; i++ {
		last = b.postForm("/login", url.Values{"admin_user": {testAdmin}, "admin_pass": {"wrong"}}).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third attempt: got %d, want 429", last)
	}
}

func TestBodyLimit(t *testing.T) {
	site := newTestSite(t, 1024, 10)
	b := site.browser(t)
	b.login()

	rec := b.postForm("/update_content", url.Values{
		"platform":     {"YouTube"},
		"action_type":  {"create_account"},
		"content_text": {strings.Repeat("x", 4096)},
	})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("got %d, want 413", rec.Code)
	}
}

func TestUploadsServed(t *testing.T) {
	site := newTestSite(t, 1<<20, 10)
	if err := os.WriteFile(filepath.Join(site.dir, "a.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	b := site.browser(t)

	for _, path := range []string{"/static/uploads/a.png", "/uploads/a.png"} {
		rec := b.get(path)
		if rec.Code != http.StatusOK || rec.Body.String() != "png-bytes" {
			t.Errorf("GET %s: got %d %q", path, rec.Code, rec.Body.String())
		}
	}

	for _, path := range []string{"/uploads/missing.png", "/uploads/sub/a.png", "/uploads/.hidden"} {
		if rec := b.get(path); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: got %d, want 404", path, rec.Code)
		}
	}
}

func TestStaticAssetsServed(t *testing.T) {
	b := newTestSite(t, 1<<20, 10).browser(t)

	rec := b.get("/static/js/app.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET app.js: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "X-CSRF-Token") {
		t.Error("app.js body unexpected")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Errorf("app.js content type: %q", ct)
	}

	if rec := b.get("/static/css/missing.css"); rec.Code != http.StatusNotFound {
		t.Errorf("missing asset: got %d, want 404", rec.Code)
	}
}
