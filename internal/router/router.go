package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/metrics"
)

// RegisterRoutes registers routes that do not require authentication and do
// not touch the catalog: the root greeting, the health check and the
// Prometheus endpoint.
func RegisterRoutes(e *echo.Echo, db *sql.DB, m *metrics.Metrics) {
	e.GET("/", handler.Index)
	e.GET("/healthz", handler.Health(db))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers account and session routes.  requireLogin guards
// the endpoints that need an open session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, requireLogin echo.MiddlewareFunc) {
	e.POST("/register", a.Register)
	e.POST("/login", a.Login)
	e.POST("/logout", a.Logout, requireLogin)
	e.GET("/protected", a.Protected, requireLogin)
	e.POST("/protected", a.Protected, requireLogin)
}

// RegisterMovies registers the catalog.  Reads are public; every mutation,
// including rating, requires a session.
func RegisterMovies(e *echo.Echo, h *handler.MovieHandler, requireLogin echo.MiddlewareFunc) {
	e.GET("/movies", h.List)
	e.GET("/movies/:id", h.Get)

	e.POST("/movies", h.Create, requireLogin)
	e.PUT("/movies/:id", h.Update, requireLogin)
	e.DELETE("/movies/:id", h.Delete, requireLogin)
	e.POST("/rate/:id", h.Rate, requireLogin)
}
