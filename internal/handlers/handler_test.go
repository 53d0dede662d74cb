// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Everything runs in memory; tests that need Valkey skip when it is
// unavailable.
package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"masteraccount/internal/auth"
	"masteraccount/internal/catalog"
	"masteraccount/internal/content"
	"masteraccount/internal/middleware"
	"masteraccount/internal/render"
	"masteraccount/internal/session"
	"masteraccount/internal/storage"
)

const (
	testAdmin    = "editor"
	testPassword = "correct horse"
)

// fakeUploads is an in-memory storage.Backend.
type fakeUploads struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
	putErr  error
}

func newFakeUploads() *fakeUploads {
	return &fakeUploads{files: make(map[string][]byte)}
}

func (f *fakeUploads) Put(_ context.Context, name, _ string, body io.Reader, _ int64) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[storage.RefPrefix+name] = data
	return storage.RefPrefix + name, nil
}

func (f *fakeUploads) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	delete(f.files, ref)
	return nil
}

func (f *fakeUploads) URL(ref string) string {
	return "/static/" + ref
}

func (f *fakeUploads) refs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.files))
	for ref := range f.files {
		out = append(out, ref)
	}
	return out
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	Store    *content.MemoryStore
	Repo     *content.Repository
	Uploads  *fakeUploads
	Renderer *render.Renderer
	Sessions *session.Store
	Creds    *auth.Credentials
	Public   *Public
	Auth     *Auth
	Admin    *Admin
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	uploads := newFakeUploads()
	renderer, err := render.New(uploads)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	creds, err := auth.New([]auth.Admin{{Username: testAdmin, PasswordHash: hash}})
	if err != nil {
		t.Fatal(err)
	}

	store := content.NewMemoryStore()
	repo := content.NewRepository(store, catalog.Default())
	sessions := session.NewStore(session.NewMemoryBackend(), false)

	return &testEnv{
		Store:    store,
		Repo:     repo,
		Uploads:  uploads,
		Renderer: renderer,
		Sessions: sessions,
		Creds:    creds,
		Public:   NewPublic(renderer, repo, sessions, nil, nil, nil),
		Auth:     NewAuth(renderer, sessions, creds, creds),
		Admin:    NewAdmin(repo, uploads, sessions, nil, 16<<20),
	}
}

// newSession stores data as a live session and returns it with its ID set.
func (env *testEnv) newSession(t *testing.T, data *session.Data) *session.Data {
	t.Helper()
	if _, err := env.Sessions.Create(context.Background(), httptest.NewRecorder(), data); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return data
}

func (env *testEnv) adminSession(t *testing.T) *session.Data {
	return env.newSession(t, &session.Data{Admin: true, Username: testAdmin})
}

// loadSession reads a session back from the store by ID.
func (env *testEnv) loadSession(t *testing.T, id string) *session.Data {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: id})
	data, err := env.Sessions.Get(context.Background(), req)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if data == nil {
		t.Fatalf("session %s not found", id)
	}
	return data
}

// responseSession reads the session whose cookie the response set.
func (env *testEnv) responseSession(t *testing.T, rec *httptest.ResponseRecorder) *session.Data {
	t.Helper()
	var id string
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" && c.MaxAge >= 0 {
			id = c.Value
		}
	}
	if id == "" {
		t.Fatal("response set no session cookie")
	}
	return env.loadSession(t, id)
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

func withSession(r *http.Request, data *session.Data) *http.Request {
	if data == nil {
		return r
	}
	if data.ID != "" {
		r.AddCookie(&http.Cookie{Name: session.CookieName, Value: data.ID})
	}
	return r.WithContext(ctxWithSession(r.Context(), data))
}

// withChiURLParams adds chi URL parameters to a request.
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func flashMessages(data *session.Data) []string {
	var out []string
	for _, f := range data.Flashes {
		out = append(out, f.Kind+": "+f.Message)
	}
	return out
}

func hasFlash(data *session.Data, kind, msg string) bool {
	for _, f := range data.Flashes {
		if f.Kind == kind && f.Message == msg {
			return true
		}
	}
	return false
}

// upload is one file part of a multipart request.
type upload struct {
	field string
	name  string
	body  []byte
}

// multipartRequest builds a POST with form fields and file parts.
func multipartRequest(t *testing.T, target string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(f.body)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// formRequest builds a url-encoded POST.
func formRequest(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// pngBytes returns a small valid PNG.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// mp4Bytes returns the start of an MP4 file, enough for content sniffing.
func mp4Bytes() []byte {
	return append([]byte("\x00\x00\x00\x10ftypmp42\x00\x00\x00\x00"), make([]byte, 64)...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "guide:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}
