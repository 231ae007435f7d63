package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/repository"
)

type rateReq struct {
	Rating json.RawMessage `json:"rating"`
}

// parseRating accepts a JSON number, truncated toward zero, or a string
// holding an integer.
func parseRating(raw json.RawMessage) (int, bool) {
	s := strings.TrimSpace(string(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(unq))
		return n, err == nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// anything this large is out of range anyway
	f = math.Max(math.Min(math.Trunc(f), math.MaxInt32), math.MinInt32)
	return int(f), true
}

// Rate records the caller's rating of a movie, replacing an earlier one,
// and returns the fresh aggregate.
func (h *MovieHandler) Rate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Login required"})
	}
	id, ok := movieID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Movie not found"})
	}
	var req rateReq
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON"})
	}
	if len(req.Rating) == 0 || string(req.Rating) == "null" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Rating is required"})
	}
	value, ok := parseRating(req.Rating)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Rating must be an integer"})
	}
	if !model.InRange(value) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Rating should be in the range of 0 to 10"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Ratings.Upsert(ctx, id, uid, value); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Movie not found"})
		}
		h.Log.Error().Err(err).Uint64("movie_id", id).Msg("rate movie")
		return dbError(c)
	}
	summary, err := h.Ratings.Summary(ctx, id)
	if err != nil {
		h.Log.Error().Err(err).Uint64("movie_id", id).Msg("rating summary")
		return dbError(c)
	}
	if h.Metrics != nil {
		h.Metrics.RatingsRecorded.Inc()
	}
	ev := queue.NewActivityEvent(queue.RatingSubmitted, uid, id)
	ev.Rating = &value
	h.emit(ev)
	return c.JSON(http.StatusOK, echo.Map{"message": "Rating submitted successfully", "data": summary})
}
