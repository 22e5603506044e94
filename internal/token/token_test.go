package token_test

import (
	"testing"
	"time"

	"github.com/darkgooddack/notification-distribution/internal/domain"
	"github.com/darkgooddack/notification-distribution/internal/token"
)

func TestManager_IssueAndVerify(t *testing.T) {
	m := token.NewManager("test-secret", 30*time.Minute)

	signed, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	username, err := m.Verify(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if username != "alice" {
		t.Fatalf("expected subject alice, got %q", username)
	}
}

func TestManager_Verify_WrongSecret(t *testing.T) {
	issuer := token.NewManager("secret-a", 30*time.Minute)
	verifier := token.NewManager("secret-b", 30*time.Minute)

	signed, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := verifier.Verify(signed); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestManager_Verify_Garbage(t *testing.T) {
	m := token.NewManager("test-secret", 30*time.Minute)
	if _, err := m.Verify("not.a.token"); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestManager_Verify_Expired(t *testing.T) {
	m := token.NewManager("test-secret", -time.Minute)

	signed, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := m.Verify(signed); err != domain.ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestManager_Subject_AcceptsExpired(t *testing.T) {
	m := token.NewManager("test-secret", -time.Minute)

	signed, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	username, err := m.Subject(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if username != "alice" {
		t.Fatalf("expected subject alice, got %q", username)
	}
}

func TestManager_Subject_RejectsBadSignature(t *testing.T) {
	issuer := token.NewManager("secret-a", time.Minute)
	verifier := token.NewManager("secret-b", time.Minute)

	signed, _ := issuer.Issue("alice")
	if _, err := verifier.Subject(signed); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
