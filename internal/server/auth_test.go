package server

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := newTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue("ABCD", "player-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	code, id, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if code != "ABCD" || id != "player-1" {
		t.Fatalf("expected ABCD/player-1, got %s/%s", code, id)
	}

	other := newTokenIssuer("another-secret", time.Hour)
	if _, _, err := other.Parse(token); !errors.Is(err, errInvalidToken) {
		t.Fatalf("expected foreign signature rejected, got %v", err)
	}
}

func TestTokenExpires(t *testing.T) {
	issuer := newTokenIssuer("secret", time.Minute)
	start := time.Now()
	issuer.now = func() time.Time { return start }
	token, err := issuer.Issue("ABCD", "player-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	issuer.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, _, err := issuer.Parse(token); !errors.Is(err, errInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestRandomSecretPerIssuer(t *testing.T) {
	a := newTokenIssuer("", time.Hour)
	b := newTokenIssuer("", time.Hour)
	token, err := a.Issue("ABCD", "p")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := b.Parse(token); err == nil {
		t.Fatalf("expected separate random secrets")
	}
}
