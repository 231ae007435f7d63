package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-catalog/internal/metrics"
	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/repository"
	queue_publisher "github.com/iliyamo/movie-catalog/internal/service"
	"github.com/iliyamo/movie-catalog/internal/utils"
)

// MovieHandler serves movie CRUD, listing and rating endpoints.
type MovieHandler struct {
	Movies  *repository.MovieRepo
	Ratings *repository.RatingRepo
	Events  queue_publisher.Publisher
	Log     zerolog.Logger
	Metrics *metrics.Metrics

	// Now reports the current time; release dates after its calendar day
	// are rejected.  Tests pin it.
	Now func() time.Time
}

func NewMovieHandler(movies *repository.MovieRepo, ratings *repository.RatingRepo, events queue_publisher.Publisher, log zerolog.Logger, m *metrics.Metrics) *MovieHandler {
	if events == nil {
		events = queue_publisher.NopPublisher{}
	}
	return &MovieHandler{Movies: movies, Ratings: ratings, Events: events, Log: log, Metrics: m, Now: time.Now}
}

// ----- DTOs -----

type createMovieReq struct {
	Title         string   `json:"title" validate:"required"`
	Description   *string  `json:"description"`
	ReleaseDate   string   `json:"release_date" validate:"required,isodate"`
	Director      *string  `json:"director"`
	Genre         *string  `json:"genre"`
	AverageRating numeric  `json:"average_rating" validate:"required,min=1,max=10"`
	TicketPrice   *numeric `json:"ticket_price"`
	Cast          *string  `json:"cast"`
}

type updateMovieReq struct {
	Title       *string  `json:"title" validate:"omitnil,min=1"`
	Description *string  `json:"description"`
	ReleaseDate *string  `json:"release_date" validate:"omitnil,isodate"`
	Director    *string  `json:"director"`
	Genre       *string  `json:"genre"`
	TicketPrice *numeric `json:"ticket_price"`
	Cast        *string  `json:"cast"`
}

type movieListResp struct {
	Page        int               `json:"page"`
	PerPage     int               `json:"per_page"`
	TotalPages  int64             `json:"total_pages"`
	TotalMovies int64             `json:"total_movies"`
	Data        []model.MovieView `json:"data"`
}

func movieID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// emit publishes ev in the background.  Delivery failures are logged only.
func (h *MovieHandler) emit(ev queue.ActivityEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		result := "ok"
		if err := h.Events.Publish(ctx, ev); err != nil {
			result = "error"
			h.Log.Warn().Err(err).Str("type", ev.Type).Uint64("movie_id", ev.MovieID).Msg("publish activity event")
		}
		if h.Metrics != nil {
			h.Metrics.EventsPublished.WithLabelValues(ev.Type, result).Inc()
		}
	}()
}

// Create stores a new movie owned by the caller.
func (h *MovieHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Login required"})
	}
	var req createMovieReq
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid JSON"})
	}
	req.Title = strings.TrimSpace(req.Title)

	if err := validate.Struct(req); err != nil {
		switch {
		case hasTag(err, "required"):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Title, release date, and average rating are required"})
		case hasTag(err, "isodate"):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid release date format. Use YYYY-MM-DD"})
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Average rating must be between 1 and 10"})
		}
	}
	if utils.IsFutureDate(req.ReleaseDate, h.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Release date cannot be in the future"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.Create(ctx, repository.NewMovie{
		Title:         req.Title,
		Description:   req.Description,
		ReleaseDate:   req.ReleaseDate,
		Director:      req.Director,
		Genre:         req.Genre,
		AverageRating: float64(req.AverageRating),
		TicketPrice:   req.TicketPrice.float(),
		Cast:          req.Cast,
		CreatorID:     uid,
	})
	if err != nil {
		h.Log.Error().Err(err).Msg("create movie")
		return dbError(c)
	}
	if h.Metrics != nil {
		h.Metrics.MoviesCreated.Inc()
	}
	ev := queue.NewActivityEvent(queue.MovieCreated, uid, m.ID)
	ev.Title = m.Title
	h.emit(ev)
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie created successfully", "data": m.View()})
}

// List returns a filtered, searched, sorted page of movies.
func (h *MovieHandler) List(c echo.Context) error {
	q := repository.ParseMovieQuery(c.QueryParams())

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.Movies.Search(ctx, q)
	if err != nil {
		h.Log.Error().Err(err).Msg("list movies")
		return dbError(c)
	}
	return c.JSON(http.StatusOK, movieListResp{
		Page:        page.Page,
		PerPage:     page.PerPage,
		TotalPages:  page.TotalPages,
		TotalMovies: page.Total,
		Data:        model.Views(page.Movies),
	})
}

// Get returns one movie with its live rating aggregate.
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := movieID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found"})
	}
	if err != nil {
		h.Log.Error().Err(err).Uint64("movie_id", id).Msg("get movie")
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": m.View()})
}

// Update applies a partial update; only the creator may call it.
func (h *MovieHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Login required"})
	}
	id, ok := movieID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found"})
	}
	var req updateMovieReq
	if err := decodePartialJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid JSON"})
	}
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		req.Title = &t
	}
	if err := validate.Struct(req); err != nil {
		if hasTag(err, "isodate") {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid release date format. Use YYYY-MM-DD"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Title cannot be empty"})
	}
	if req.ReleaseDate != nil && utils.IsFutureDate(*req.ReleaseDate, h.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Release date cannot be in the future"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.UpdateByIDAndCreator(ctx, id, uid, repository.MovieUpdate{
		Title:       req.Title,
		Description: req.Description,
		ReleaseDate: req.ReleaseDate,
		Director:    req.Director,
		Genre:       req.Genre,
		TicketPrice: req.TicketPrice.float(),
		Cast:        req.Cast,
	})
	switch {
	case errors.Is(err, repository.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"message": "You are not the creator of this movie"})
	case err != nil:
		h.Log.Error().Err(err).Uint64("movie_id", id).Msg("update movie")
		return dbError(c)
	}
	ev := queue.NewActivityEvent(queue.MovieUpdated, uid, m.ID)
	ev.Title = m.Title
	h.emit(ev)
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie updated successfully", "data": m.View()})
}

// Delete removes a movie and its ratings; only the creator may call it.
func (h *MovieHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Login required"})
	}
	id, ok := movieID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Movies.DeleteByIDAndCreator(ctx, id, uid); {
	case errors.Is(err, repository.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"message": "You are not the creator of this movie"})
	case err != nil:
		h.Log.Error().Err(err).Uint64("movie_id", id).Msg("delete movie")
		return dbError(c)
	}
	if h.Metrics != nil {
		h.Metrics.MoviesDeleted.Inc()
	}
	h.emit(queue.NewActivityEvent(queue.MovieDeleted, uid, id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie deleted successfully"})
}
