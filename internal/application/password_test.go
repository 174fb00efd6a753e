package application_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/example/clinic-portal/internal/application"
	"github.com/example/clinic-portal/internal/testfixtures"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := application.CreatePasswordHash("5678", testfixtures.WeakArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Fatalf("unexpected hash encoding: %q", hash)
	}

	if err := application.VerifyPassword(hash, "5678"); err != nil {
		t.Fatalf("VerifyPassword rejected the original password: %v", err)
	}
	if err := application.VerifyPassword(hash, "8765"); !errors.Is(err, application.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for a wrong password, got %v", err)
	}
}

func TestPasswordHashSaltsEachCredential(t *testing.T) {
	first, err := application.CreatePasswordHash("doc1", testfixtures.WeakArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	second, err := application.CreatePasswordHash("doc1", testfixtures.WeakArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password share a salt")
	}
	if err := application.VerifyPassword(second, "doc1"); err != nil {
		t.Fatalf("VerifyPassword rejected the second hash: %v", err)
	}
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	for name, encoded := range map[string]string{
		"empty":           "",
		"plain text":      "not-a-hash",
		"wrong algorithm": "$argon2i$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"wrong version":   "$argon2id$v=18$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"bad parameters":  "$argon2id$v=19$m=eight$c2FsdA$aGFzaA",
		"bad salt":        "$argon2id$v=19$m=8,t=1,p=1$!!!$aGFzaA",
	} {
		t.Run(name, func(t *testing.T) {
			if err := application.VerifyPassword(encoded, "anything"); !errors.Is(err, application.ErrInvalidPasswordHash) {
				t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
			}
		})
	}
}
