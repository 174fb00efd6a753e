package testfixtures

import "testing"

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator(5000)

	first := gen.Next()
	second := gen.Next()

	if first != 5001 || second != 5002 {
		t.Fatalf("unexpected identifiers: %d, %d", first, second)
	}
}

func TestIDGeneratorCanReset(t *testing.T) {
	gen := NewIDGenerator(100)
	_ = gen.Next()
	gen.SetCounter(0)

	if next := gen.Next(); next != 101 {
		t.Fatalf("expected 101 after reset, got %d", next)
	}
}

func TestTokenGeneratorProducesSequentialTokens(t *testing.T) {
	gen := NewTokenGenerator("proposal")

	first := gen.Next()
	second := gen.Next()

	if first != "proposal-1" || second != "proposal-2" {
		t.Fatalf("unexpected tokens: %q, %q", first, second)
	}
}

func TestTokenGeneratorDefaultsPrefix(t *testing.T) {
	gen := NewTokenGenerator("")

	if next := gen.Next(); next != "token-1" {
		t.Fatalf("expected token-1, got %q", next)
	}
}
