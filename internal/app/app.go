// Package app wires configuration, storage, sessions, messaging, logging and
// metrics into one explicit object that owns the HTTP stack.
package app

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/metrics"
	"github.com/iliyamo/movie-catalog/internal/middleware"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/router"
	queue_publisher "github.com/iliyamo/movie-catalog/internal/service"
	"github.com/iliyamo/movie-catalog/internal/session"
)

// App is the application context handed to every handler.  Nothing in the
// service reads package-level state; tests build as many isolated Apps as
// they need.
type App struct {
	Cfg       config.Config
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig

	DB        *sql.DB
	Redis     *redis.Client // nil when Redis is unavailable
	Sessions  session.Store
	Publisher queue_publisher.Publisher
	Log       zerolog.Logger
	Metrics   *metrics.Metrics

	Users   *repository.UserRepo
	Movies  *repository.MovieRepo
	Ratings *repository.RatingRepo
}

// Options carries the optional collaborators of New.  Zero values select
// the in-process fallbacks: memory sessions, no caching, in-memory rate
// limiting and no event publishing.
type Options struct {
	Redis     *redis.Client
	Publisher queue_publisher.Publisher
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       *zerolog.Logger
}

// New builds an App around an open database.
func New(cfg config.Config, db *sql.DB, opts Options) *App {
	log := zerolog.Nop()
	if opts.Log != nil {
		log = *opts.Log
	}
	pub := opts.Publisher
	if pub == nil {
		pub = queue_publisher.NopPublisher{}
	}
	return &App{
		Cfg:       cfg,
		Cache:     opts.Cache,
		RateLimit: opts.RateLimit,
		DB:        db,
		Redis:     opts.Redis,
		Sessions:  session.New(opts.Redis),
		Publisher: pub,
		Log:       log,
		Metrics:   metrics.New(),
		Users:     repository.NewUserRepo(db),
		Movies:    repository.NewMovieRepo(db),
		Ratings:   repository.NewRatingRepo(db),
	}
}

// Echo returns a configured echo instance with every route registered.
func (a *App) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(a.Log))
	e.Use(echomw.Recover())
	e.Use(middleware.Metrics(a.Metrics))
	e.Use(middleware.NewTokenBucket(a.RateLimit, a.Cfg.SessionSecret, a.Redis, a.Metrics))
	e.Use(middleware.NewRedisCache(a.Cache, a.Redis, a.Metrics))

	requireLogin := middleware.RequireLogin(a.Cfg.SessionSecret, a.Sessions)
	auth := handler.NewAuthHandler(a.Cfg, a.Users, a.Sessions, a.Log, a.Metrics)
	movies := handler.NewMovieHandler(a.Movies, a.Ratings, a.Publisher, a.Log, a.Metrics)

	router.RegisterRoutes(e, a.DB, a.Metrics)
	router.RegisterAuth(e, auth, requireLogin)
	router.RegisterMovies(e, movies, requireLogin)
	return e
}

// Close releases the collaborators the App owns.  The database is closed by
// whoever opened it.
func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	return a.Publisher.Close()
}
