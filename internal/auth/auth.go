// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth checks admin credentials. Admins are kept in a YAML file
// with bcrypt password hashes and an optional TOTP secret for a second
// factor.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Issuer is the name shown by authenticator apps.
const Issuer = "Master Account"

// ErrUnknownAdmin is returned when an operation names an admin that does
// not exist.
var ErrUnknownAdmin = errors.New("unknown admin")

// Verifier decides whether a username and password pair is valid.
type Verifier interface {
	Verify(username, password string) bool
}

// Admin is one entry of the admins file.
type Admin struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	TOTPSecret   string `yaml:"totp_secret,omitempty"`
}

// fileFormat is the top-level shape of the admins file.
type fileFormat struct {
	Admins []Admin `yaml:"admins"`
}

// Credentials is an immutable set of admins.
type Credentials struct {
	admins map[string]Admin
}

// New validates admins and returns a credential set.
func New(admins []Admin) (*Credentials, error) {
	c := &Credentials{admins: make(map[string]Admin, len(admins))}
	for i, a := range admins {
		a.Username = strings.TrimSpace(a.Username)
		if a.Username == "" {
			return nil, fmt.Errorf("admin %d: username is required", i)
		}
		if _, dup := c.admins[a.Username]; dup {
			return nil, fmt.Errorf("admin %q: duplicate username", a.Username)
		}
		if _, err := bcrypt.Cost([]byte(a.PasswordHash)); err != nil {
			return nil, fmt.Errorf("admin %q: password_hash is not a bcrypt hash: %w", a.Username, err)
		}
		c.admins[a.Username] = a
	}
	return c, nil
}

// LoadFile reads the admins file at path.
func LoadFile(path string) (*Credentials, error) {
	admins, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(admins)
}

// ReadFile returns the raw admin entries stored at path.
func ReadFile(path string) ([]Admin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admins file: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse admins file %s: %w", path, err)
	}
	return f.Admins, nil
}

// WriteFile replaces the admins file at path. The file is only readable by
// its owner since it holds TOTP secrets.
func WriteFile(path string, admins []Admin) error {
	data, err := yaml.Marshal(fileFormat{Admins: admins})
	if err != nil {
		return fmt.Errorf("encode admins: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create admins dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write admins file: %w", err)
	}
	return nil
}

// Development returns a credential set with a single admin/admin account.
// Only used when no admins file exists in development.
func Development() *Credentials {
	hash, err := HashPassword("admin")
	if err != nil {
		panic(fmt.Sprintf("auth: hash default password: %v", err))
	}
	slog.Warn("no admins file, using default development admin",
		"username", "admin",
		"password", "admin",
	)
	return &Credentials{admins: map[string]Admin{
		"admin": {Username: "admin", PasswordHash: hash},
	}}
}

// Verify reports whether password matches the stored hash for username.
// Unknown usernames still pay for one bcrypt comparison.
func (c *Credentials) Verify(username, password string) bool {
	a, ok := c.admins[username]
	if !ok {
		bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// TOTPSecret returns the second-factor secret for username, if any.
func (c *Credentials) TOTPSecret(username string) (string, bool) {
	a, ok := c.admins[username]
	if !ok || a.TOTPSecret == "" {
		return "", false
	}
	return a.TOTPSecret, true
}

// Usernames returns the admin usernames in sorted order.
func (c *Credentials) Usernames() []string {
	names := make([]string, 0, len(c.admins))
	for name := range c.admins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// GenerateTOTP creates a new TOTP key for username.
func GenerateTOTP(username string) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: username,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp: %w", err)
	}
	return key, nil
}

// ValidateCode checks a six-digit TOTP code against secret.
func ValidateCode(code, secret string) bool {
	return totp.Validate(strings.TrimSpace(code), secret)
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-password"), bcrypt.DefaultCost)
	})
	return dummy
}
