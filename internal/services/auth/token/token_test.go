package token

import (
	"errors"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, time.May, 10, 8, 0, 0, 0, time.UTC)
}

func TestMintVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner("test-secret", fixedNow)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	raw, err := signer.Mint("user-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	subject, err := signer.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "user-1" {
		t.Fatalf("subject = %q, want user-1", subject)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	minter, err := NewSigner("secret-a", fixedNow)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	verifier, err := NewSigner("secret-b", fixedNow)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	raw, err := minter.Mint("user-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := verifier.Verify(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	minter, err := NewSigner("test-secret", fixedNow)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	raw, err := minter.Mint("user-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	later := func() time.Time { return fixedNow().Add(TTL + time.Minute) }
	verifier, err := NewSigner("test-secret", later)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if _, err := verifier.Verify(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner("test-secret", fixedNow)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if _, err := signer.Verify("not-a-token"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if _, err := signer.Verify(""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("empty err = %v, want ErrInvalid", err)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewSigner("  ", fixedNow); err == nil {
		t.Fatal("expected missing secret error")
	}
}
