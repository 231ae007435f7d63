package utils // package utils provides helpers for hashing, dates and session tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
	"github.com/google/uuid"       // random token identifiers
)

// ErrInvalidToken is returned when a session token cannot be verified.
var ErrInvalidToken = errors.New("invalid session token")

// SessionToken is a signed HS256 JWT identifying a login session.  ID is the
// token's jti claim and is the key under which the session store tracks the
// session; a token is only honoured while that key is live.
type SessionToken struct {
	Token  string    // serialized JWT
	ID     string    // jti claim
	UserID uint64    // sub claim
	Exp    time.Time // UTC expiry
}

// NewSessionToken signs a session token for userID valid for ttl.
func NewSessionToken(secret string, userID uint64, ttl time.Duration) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	id := uuid.NewString()
	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, ID: id, UserID: userID, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of raw and returns its
// decoded claims.  Tokens signed with anything other than HMAC are rejected.
func ParseSessionToken(secret, raw string) (SessionToken, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return SessionToken{}, ErrInvalidToken
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 || claims.ID == "" {
		return SessionToken{}, ErrInvalidToken
	}
	out := SessionToken{Token: raw, ID: claims.ID, UserID: uid}
	if claims.ExpiresAt != nil {
		out.Exp = claims.ExpiresAt.Time.UTC()
	}
	return out, nil
}
