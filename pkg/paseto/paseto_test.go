package pasetotoken

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func generate(t *testing.T, mode Mode) Keyring {
	t.Helper()
	k, err := GenerateKeyring(mode)
	if err != nil {
		t.Fatalf("GenerateKeyring(%s): %v", mode, err)
	}
	return k
}

func newManager(t *testing.T, keys Keyring, aud string) *Manager {
	t.Helper()
	m, err := New(keys, Options{Issuer: "educare_track", Audience: aud})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeLocal, ModePublic} {
		t.Run(string(mode), func(t *testing.T) {
			m := newManager(t, generate(t, mode), "educare_track")
			sub := Subject{UserID: uuid.New(), SessionID: uuid.New(), Role: "guard"}

			tok, err := m.IssueAccess(sub)
			if err != nil {
				t.Fatalf("IssueAccess: %v", err)
			}
			claims, err := m.Verify(tok)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if claims.Type != TokenTypeAccess || claims.UserID != sub.UserID ||
				claims.SessionID != sub.SessionID || claims.Role != "guard" {
				t.Errorf("claims = %+v", claims)
			}
			if claims.IsExpired() {
				t.Error("fresh token reported expired")
			}
			if d := claims.ExpiresAt.Sub(claims.IssuedAt); d != defaultAccessTTL {
				t.Errorf("access ttl = %v, want %v", d, defaultAccessTTL)
			}

			refresh, _ := m.IssueRefresh(sub)
			rc, err := m.Verify(refresh)
			if err != nil || rc.Type != TokenTypeRefresh {
				t.Errorf("refresh verify = %+v, %v", rc, err)
			}
		})
	}
}

func TestVerifyRejects(t *testing.T) {
	keys := generate(t, ModeLocal)
	verifier := newManager(t, keys, "educare_track")
	sub := Subject{UserID: uuid.New(), SessionID: uuid.New()}

	foreignAud, _ := newManager(t, keys, "terminal").IssueAccess(sub)
	otherKey, _ := newManager(t, generate(t, ModeLocal), "educare_track").IssueAccess(sub)

	expiring, err := New(keys, Options{Issuer: "educare_track", Audience: "educare_track", AccessTTL: time.Nanosecond})
	if err != nil {
		t.Fatal(err)
	}
	expired, _ := expiring.IssueAccess(sub)
	time.Sleep(2 * time.Millisecond)

	for name, tok := range map[string]string{
		"foreign audience": foreignAud,
		"other key":        otherKey,
		"expired":          expired,
		"garbage":          "v4.local.nope",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := verifier.Verify(tok); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(generate(t, ModeLocal), Options{Audience: "a"}); !errors.Is(err, ErrMisconfigured) {
		t.Errorf("missing issuer: %v", err)
	}
	pub := generate(t, ModePublic)
	verifyOnly, err := ParseKeyring(ModePublic, "", "", pub.Export()["public_key_hex"])
	if err != nil {
		t.Fatalf("ParseKeyring: %v", err)
	}
	if verifyOnly.CanIssue() {
		t.Error("public-only keyring claims it can issue")
	}
	if _, err := New(verifyOnly, Options{Issuer: "i", Audience: "a"}); !errors.Is(err, ErrMisconfigured) {
		t.Errorf("verify-only keyring: %v", err)
	}
}

func TestParseKeyring(t *testing.T) {
	local := generate(t, ModeLocal).Export()
	pub := generate(t, ModePublic).Export()
	other := generate(t, ModePublic).Export()

	tests := []struct {
		name                 string
		mode                 Mode
		local, secret, publc string
		wantErr              bool
	}{
		{"local ok", ModeLocal, local["local_key_hex"], "", "", false},
		{"local padded", ModeLocal, " " + local["local_key_hex"] + "\n", "", "", false},
		{"local missing", ModeLocal, "", "", "", true},
		{"local bad hex", ModeLocal, "zz", "", "", true},
		{"public secret only", ModePublic, "", pub["secret_key_hex"], "", false},
		{"public both", ModePublic, "", pub["secret_key_hex"], pub["public_key_hex"], false},
		{"public mismatch", ModePublic, "", pub["secret_key_hex"], other["public_key_hex"], true},
		{"public empty", ModePublic, "", "", "", true},
		{"unknown mode", "jwt", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKeyring(tt.mode, tt.local, tt.secret, tt.publc)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMisconfigured) {
				t.Errorf("err %v does not wrap ErrMisconfigured", err)
			}
		})
	}
}
