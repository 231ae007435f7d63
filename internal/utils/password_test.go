package utils

import (
	"strings"
	"testing"
)

func TestHashPasswordIsDeterministicHex(t *testing.T) {
	a := HashPassword("pw1")
	b := HashPassword("pw1")
	if a != b {
		t.Fatalf("expected equal digests, got %q and %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	// sha256("abc")
	const abc = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashPassword("abc"); got != abc {
		t.Fatalf("unexpected digest: %s", got)
	}
}

func TestVerifyPassword(t *testing.T) {
	for _, p := range []string{"pw1", "", "correct horse battery staple", "пароль"} {
		if !VerifyPassword(HashPassword(p), p) {
			t.Fatalf("verify(hash(%q), %q) should be true", p, p)
		}
		if VerifyPassword(HashPassword(p), p+"x") {
			t.Fatalf("verify(hash(%q), %q) should be false", p, p+"x")
		}
	}
}

func TestVerifyPasswordAcceptsUppercaseDigest(t *testing.T) {
	stored := strings.ToUpper(HashPassword("secret"))
	if !VerifyPassword(stored, "secret") {
		t.Fatal("expected uppercase hex digest to verify")
	}
}

func TestHashPasswordWithBcrypt(t *testing.T) {
	h1, err := HashPasswordWith(SchemeBcrypt, "pw1", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := HashPasswordWith(SchemeBcrypt, "pw1", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("bcrypt hashes should be salted")
	}
	if !strings.HasPrefix(h1, "$2") {
		t.Fatalf("unexpected bcrypt prefix: %q", h1)
	}
	if !VerifyPassword(h1, "pw1") || VerifyPassword(h1, "pw2") {
		t.Fatal("bcrypt verify mismatch")
	}
}

func TestHashPasswordWithUnknownSchemeFallsBack(t *testing.T) {
	h, err := HashPasswordWith("md5", "pw1", 0)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h != HashPassword("pw1") {
		t.Fatalf("expected sha256 fallback, got %q", h)
	}
}
