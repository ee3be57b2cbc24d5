package auth

import (
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("test-session-secret")

// TestSessionToken_RoundTrip mints a token and validates it with the same
// secret, recovering the user id and CSRF value.
func TestSessionToken_RoundTrip(t *testing.T) {
	token, csrf, err := IssueSessionToken(testSecret, "user-42", time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}
	if csrf == "" {
		t.Fatalf("expected a CSRF value")
	}

	claims, err := ParseSessionToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseSessionToken: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Fatalf("UserID = %q, want %q", claims.UserID, "user-42")
	}
	if claims.CSRF != csrf {
		t.Fatalf("CSRF = %q, want %q", claims.CSRF, csrf)
	}
}

// TestSessionToken_WrongSecretRejected fails validation when the shared
// secret differs.
func TestSessionToken_WrongSecretRejected(t *testing.T) {
	token, _, err := IssueSessionToken(testSecret, "user-42", time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}

	_, err = ParseSessionToken([]byte("other-secret"), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

// TestSessionToken_ExpiredRejected surfaces the expiry as ErrExpiredToken.
func TestSessionToken_ExpiredRejected(t *testing.T) {
	token, _, err := IssueSessionToken(testSecret, "user-42", -time.Minute)
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}

	_, err = ParseSessionToken(testSecret, token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

// TestSessionToken_GarbageRejected rejects values that are not JWTs at all.
func TestSessionToken_GarbageRejected(t *testing.T) {
	for _, in := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := ParseSessionToken(testSecret, in); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("ParseSessionToken(%q) err = %v, want ErrInvalidToken", in, err)
		}
	}
}

// TestIssueSessionToken_RequiresUserID refuses to mint an anonymous session.
func TestIssueSessionToken_RequiresUserID(t *testing.T) {
	if _, _, err := IssueSessionToken(testSecret, "", time.Hour); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}
