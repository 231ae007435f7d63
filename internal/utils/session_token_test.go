package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if tok.ID == "" || tok.Token == "" {
		t.Fatal("expected token id and value")
	}
	got, err := ParseSessionToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.UserID != 42 || got.ID != tok.ID {
		t.Fatalf("unexpected claims: %+v", got)
	}
}

func TestSessionTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewSessionToken("secret", 1, time.Hour)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if _, err := ParseSessionToken("other", tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionTokenRejectsExpired(t *testing.T) {
	tok, err := NewSessionToken("secret", 1, -time.Minute)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if _, err := ParseSessionToken("secret", tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionTokenRejectsMissingExpiry(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:      "abc",
		Subject: "1",
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseSessionToken("secret", raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
