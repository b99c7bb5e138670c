package auth

import (
	"testing"
	"time"
)

func TestVerifySubjectAcceptsValidToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	token := Issue("s3cret", "user-42", time.Hour, now)

	v := NewVerifier("s3cret")
	v.now = func() time.Time { return now.Add(time.Minute) }

	if err := v.VerifySubject(token, "user-42"); err != nil {
		t.Fatalf("expected valid token to verify, got %v", err)
	}
}

func TestVerifySubjectRejectsWrongSecret(t *testing.T) {
	now := time.Now()
	token := Issue("s3cret", "user-42", time.Hour, now)

	v := NewVerifier("different")
	if err := v.VerifySubject(token, "user-42"); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifySubjectRejectsExpired(t *testing.T) {
	now := time.Now()
	token := Issue("s3cret", "user-42", time.Minute, now)

	v := NewVerifier("s3cret")
	v.now = func() time.Time { return now.Add(2 * time.Minute) }

	if err := v.VerifySubject(token, "user-42"); err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifySubjectRejectsClaimMismatch(t *testing.T) {
	now := time.Now()
	token := Issue("s3cret", "user-42", time.Hour, now)

	v := NewVerifier("s3cret")
	v.now = func() time.Time { return now }

	if err := v.VerifySubject(token, "someone-else"); err != ErrSubjectMismatch {
		t.Fatalf("expected ErrSubjectMismatch, got %v", err)
	}
}

func TestVerifySubjectRejectsMalformedToken(t *testing.T) {
	v := NewVerifier("s3cret")
	if err := v.VerifySubject("not-a-token", "user-42"); err != ErrMalformedToken {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}
