package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/metrics"
	"github.com/iliyamo/movie-catalog/internal/middleware"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/session"
	"github.com/iliyamo/movie-catalog/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions session.Store
	Log      zerolog.Logger
	Metrics  *metrics.Metrics
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s session.Store, log zerolog.Logger, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, Log: log, Metrics: m}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResp struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *AuthHandler) countLogin(result string) {
	if h.Metrics != nil {
		h.Metrics.Logins.WithLabelValues(result).Inc()
	}
}

// Register creates an account.  Usernames and emails are unique.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	switch err := decodeJSON(c, &req); {
	case errors.Is(err, errNotJSON):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request"})
	case err != nil:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, h.Cfg.PasswordScheme, h.Cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Username already taken"})
	case errors.Is(err, repository.ErrEmailTaken):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email already registered"})
	case err != nil:
		h.Log.Error().Err(err).Str("username", req.Username).Msg("register: create user")
		return dbError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Account created successfully!"})
}

// Login verifies credentials and opens a session.  The signed session token
// is returned in the body and set as an HttpOnly cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	switch err := decodeJSON(c, &req); {
	case errors.Is(err, errNotJSON):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request"})
	case err != nil:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		h.Log.Error().Err(err).Msg("login: lookup user")
		return dbError(c)
	}
	if err != nil || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.countLogin("failure")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid username or password"})
	}

	tok, err := utils.NewSessionToken(h.Cfg.SessionSecret, u.ID, h.Cfg.SessionTTL)
	if err != nil {
		h.Log.Error().Err(err).Msg("login: sign session")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	if err := h.Sessions.Put(ctx, tok.ID, u.ID, h.Cfg.SessionTTL); err != nil {
		h.Log.Error().Err(err).Msg("login: store session")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	if err := h.Users.SetAuthenticated(ctx, u.ID, true); err != nil {
		h.Log.Warn().Err(err).Uint64("user_id", u.ID).Msg("login: set authenticated flag")
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	})
	h.countLogin("success")
	return c.JSON(http.StatusOK, loginResp{Message: "Login successful!", Token: tok.Token, ExpiresAt: tok.Exp})
}

// Logout revokes the current session and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Login required"})
	}
	sid, _ := c.Get(middleware.CtxSessionID).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Delete(ctx, sid); err != nil {
		h.Log.Error().Err(err).Msg("logout: revoke session")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke session failed"})
	}
	if err := h.Users.SetAuthenticated(ctx, uid, false); err != nil {
		h.Log.Warn().Err(err).Uint64("user_id", uid).Msg("logout: clear authenticated flag")
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful!"})
}

// Protected answers only for logged-in callers.
func (h *AuthHandler) Protected(c echo.Context) error {
	return c.String(http.StatusOK, "Hello, you are logged in!")
}
