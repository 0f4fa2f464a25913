package auth

import (
	"errors"
	"testing"
	"time"
)

func TestLoginRoundTrip(t *testing.T) {
	tok, err := Login("admin123", "admin123", "smartattend", "test-key", time.Hour)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := Parse(tok.Value, "test-key", "smartattend")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != RoleInstructor {
		t.Fatalf("role = %q, want %q", claims.Role, RoleInstructor)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	if _, err := Login("guess", "admin123", "smartattend", "test-key", time.Hour); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("got %v, want ErrBadPassword", err)
	}
}

func TestParseWrongKey(t *testing.T) {
	tok, err := Issue(RoleInstructor, "smartattend", "key-a", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(tok.Value, "key-b", "smartattend"); err == nil {
		t.Fatal("expected parse failure with wrong key")
	}
}

func TestParseIssuerMismatch(t *testing.T) {
	tok, err := Issue(RoleInstructor, "someone-else", "test-key", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(tok.Value, "test-key", "smartattend"); err == nil {
		t.Fatal("expected issuer mismatch failure")
	}
}

func TestParseExpired(t *testing.T) {
	tok, err := Issue(RoleInstructor, "smartattend", "test-key", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(tok.Value, "test-key", "smartattend"); err == nil {
		t.Fatal("expected expired token to fail")
	}
}
