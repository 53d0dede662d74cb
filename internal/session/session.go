// Package session provides cookie-identified HTTP sessions. Session data is
// stored as JSON in Valkey with automatic TTL expiry, or in memory when no
// Valkey server is available.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "ma_session"

	// DefaultTTL is how long a session lives before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// ErrMissing is returned by a Backend when the key does not exist.
var ErrMissing = errors.New("session: key missing")

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Data is the session payload. Visitors get a session too so their
// dark-mode preference and flashes survive redirects.
type Data struct {
	ID string `json:"-"`

	Username string `json:"username,omitempty"`
	// Admin is set once the password and, if configured, the TOTP code
	// have been accepted.
	Admin bool `json:"admin"`
	// PendingUser holds the username between the password step and the
	// TOTP step of a login.
	PendingUser string    `json:"pending_user,omitempty"`
	DarkMode    bool      `json:"dark_mode"`
	Flashes     []Flash   `json:"flashes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AddFlash queues a message for the next page.
func (d *Data) AddFlash(kind, message string) {
	d.Flashes = append(d.Flashes, Flash{Kind: kind, Message: message})
}

// TakeFlashes returns and clears the queued messages.
func (d *Data) TakeFlashes() []Flash {
	f := d.Flashes
	d.Flashes = nil
	return f
}

// IsAdmin reports whether d belongs to a fully authenticated admin.
func (d *Data) IsAdmin() bool {
	return d != nil && d.Admin
}

// Backend is the key/value storage behind a Store.
type Backend interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns ErrMissing when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

// Store manages session lifecycle.
type Store struct {
	backend Backend
	ttl     time.Duration
	secure  bool
}

// NewStore creates a session store. When secure is true cookies carry the
// Secure attribute.
func NewStore(backend Backend, secure bool) *Store {
	return &Store{
		backend: backend,
		ttl:     DefaultTTL,
		secure:  secure,
	}
}

// Create generates a new session, stores it, and sets the session cookie
// on the response. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.ID = id
	data.CreatedAt = time.Now()

	if err := s.put(ctx, id, data); err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id, nil
}

// Get retrieves session data using the session ID from the request cookie.
// Returns nil if no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, err := s.backend.Get(ctx, keyPrefix+cookie.Value)
	if errors.Is(err, ErrMissing) {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	data.ID = cookie.Value

	return &data, nil
}

// Update replaces the session data without changing the session ID or
// cookie. Resets the TTL.
func (s *Store) Update(ctx context.Context, data *Data) error {
	if data.ID == "" {
		return fmt.Errorf("session update: no session id")
	}
	return s.put(ctx, data.ID, data)
}

// Save updates data if it belongs to an existing session and creates a
// new session otherwise.
func (s *Store) Save(ctx context.Context, w http.ResponseWriter, data *Data) error {
	if data.ID != "" {
		return s.Update(ctx, data)
	}
	_, err := s.Create(ctx, w, data)
	return err
}

// Destroy removes the session and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil // No cookie, nothing to destroy
	}

	if err := s.backend.Del(ctx, keyPrefix+cookie.Value); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})

	return nil
}

func (s *Store) put(ctx context.Context, id string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.backend.Set(ctx, keyPrefix+id, payload, s.ttl); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
