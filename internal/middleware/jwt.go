package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming
	"time"

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/movie-catalog/internal/session"
	"github.com/iliyamo/movie-catalog/internal/utils"
)

// Context keys set by RequireLogin.
const (
	CtxUserID    = "user_id"
	CtxSessionID = "session_id"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// TokenFromRequest returns the raw session token from the Authorization
// header ("Bearer <token>") or, failing that, the session cookie.
func TokenFromRequest(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if ck, err := c.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

// RequireLogin returns an Echo middleware that admits a request only when it
// carries a session token whose signature and expiry verify against secret
// and whose id is still live in store.  On success the user id (uint64) and
// session id (string) are stored on the context under CtxUserID and
// CtxSessionID.  Every failure answers 401 with the same body so callers
// cannot tell a forged token from a revoked one.
func RequireLogin(secret string, store session.Store) echo.MiddlewareFunc {
	deny := func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Login required"})
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := TokenFromRequest(c)
			if raw == "" {
				return deny(c)
			}
			tok, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				return deny(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			uid, err := store.Get(ctx, tok.ID)
			if err != nil || uid != tok.UserID {
				return deny(c)
			}

			c.Set(CtxUserID, tok.UserID)
			c.Set(CtxSessionID, tok.ID)
			return next(c)
		}
	}
}
