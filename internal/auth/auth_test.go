package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(hash)
}

func TestVerify(t *testing.T) {
	creds, err := New([]Admin{
		{Username: "alice", PasswordHash: mustHash(t, "s3cret")},
		{Username: "bob", PasswordHash: mustHash(t, "hunter2")},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		user, pass string
		want       bool
	}{
		{"alice", "s3cret", true},
		{"bob", "hunter2", true},
		{"alice", "hunter2", false},
		{"alice", "", false},
		{"carol", "s3cret", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := creds.Verify(tt.user, tt.pass); got != tt.want {
			t.Errorf("Verify(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}
}

func TestNewRejectsInvalidAdmins(t *testing.T) {
	good := mustHash(t, "pw")
	tests := []struct {
		name   string
		admins []Admin
	}{
		{"empty username", []Admin{{Username: " ", PasswordHash: good}}},
		{"duplicate", []Admin{{Username: "a", PasswordHash: good}, {Username: "a", PasswordHash: good}}},
		{"plaintext password", []Admin{{Username: "a", PasswordHash: "pw"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.admins); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "admins.yaml")
	admins := []Admin{
		{Username: "alice", PasswordHash: mustHash(t, "pw"), TOTPSecret: "JBSWY3DPEHPK3PXP"},
		{Username: "bob", PasswordHash: mustHash(t, "pw2")},
	}
	if err := WriteFile(path, admins); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	creds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !creds.Verify("bob", "pw2") {
		t.Error("expected bob to verify after round trip")
	}
	if secret, ok := creds.TOTPSecret("alice"); !ok || secret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("TOTPSecret(alice) = %q, %v", secret, ok)
	}
	if _, ok := creds.TOTPSecret("bob"); ok {
		t.Error("bob has no second factor")
	}
	if got := creds.Usernames(); len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Errorf("Usernames() = %v", got)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDevelopment(t *testing.T) {
	creds := Development()
	if !creds.Verify("admin", "admin") {
		t.Error("default development admin should verify")
	}
}

func TestTOTP(t *testing.T) {
	key, err := GenerateTOTP("alice")
	if err != nil {
		t.Fatalf("GenerateTOTP: %v", err)
	}
	if key.Issuer() != Issuer || key.AccountName() != "alice" {
		t.Errorf("key: issuer %q account %q", key.Issuer(), key.AccountName())
	}

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ValidateCode(" "+code+" ", key.Secret()) {
		t.Error("current code should validate")
	}
	if ValidateCode("000000x", key.Secret()) {
		t.Error("garbage code should not validate")
	}
}
