package middleware

// identity.go defines helpers shared across middleware files for reading the
// caller identity that RequireLogin placed on the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/utils"
)

// UserID returns the authenticated user id, or false when the request did
// not pass RequireLogin.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// userLabel is the user id as a string, or "anon" for anonymous requests.
// It is used in rate limit keys and log fields.
func userLabel(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

// tokenUserLabel is userLabel for middleware that runs ahead of
// RequireLogin.  It falls back to the subject of a correctly signed session
// token; revocation is not checked here.
func tokenUserLabel(c echo.Context, secret string) string {
	if _, ok := UserID(c); ok || secret == "" {
		return userLabel(c)
	}
	raw := TokenFromRequest(c)
	if raw == "" {
		return "anon"
	}
	tok, err := utils.ParseSessionToken(secret, raw)
	if err != nil {
		return "anon"
	}
	return strconv.FormatUint(tok.UserID, 10)
}
