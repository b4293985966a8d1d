package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if !CheckPassword(hash, "secret") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected password mismatch")
	}
}

func TestPasswordHashIsSalted(t *testing.T) {
	first, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	second, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct digests for the same secret")
	}
	if !CheckPassword(first, "secret123") || !CheckPassword(second, "secret123") {
		t.Fatalf("expected both digests to verify")
	}
}

func TestPasswordCostEmbedded(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost error: %v", err)
	}
	if cost != PasswordCost {
		t.Fatalf("expected cost %d, got %d", PasswordCost, cost)
	}
}

func TestPasswordTruncatedAt72Bytes(t *testing.T) {
	long := strings.Repeat("a", 72) + "suffix-ignored"
	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if !CheckPassword(hash, strings.Repeat("a", 72)) {
		t.Fatalf("expected 72-byte prefix to match")
	}
	if !CheckPassword(hash, strings.Repeat("a", 72)+"other") {
		t.Fatalf("expected bytes past 72 to be ignored")
	}
}

func TestPasswordTruncationDropsSplitRune(t *testing.T) {
	// "é" is two bytes; the 72-byte cut lands inside it.
	secret := strings.Repeat("a", 71) + "é"
	got := truncatePassword(secret)
	if len(got) != 71 {
		t.Fatalf("expected 71 bytes after dropping split rune, got %d", len(got))
	}
	hash, err := HashPassword(secret)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if !CheckPassword(hash, strings.Repeat("a", 71)) {
		t.Fatalf("expected truncated secret to match")
	}
}

func TestPasswordTruncationKeepsWholeRunes(t *testing.T) {
	secret := strings.Repeat("a", 70) + "é" + "zzz"
	got := truncatePassword(secret)
	if len(got) != 72 {
		t.Fatalf("expected 72 bytes, got %d", len(got))
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if CheckPassword("not-a-bcrypt-hash", "secret") {
		t.Fatalf("expected malformed hash to never match")
	}
	if CheckPassword("", "") {
		t.Fatalf("expected empty hash to never match")
	}
}

func TestFingerprintStable(t *testing.T) {
	if Fingerprint("headache") != Fingerprint("headache") {
		t.Fatalf("expected stable fingerprint")
	}
	if Fingerprint("headache") == Fingerprint("fever") {
		t.Fatalf("expected distinct fingerprints")
	}
}
