package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// Paging defaults for movie listings.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Sort keys accepted by MovieQuery.SortBy.
const (
	SortReleaseDate = "release_date"
	SortTicketPrice = "ticket_price"
)

// MovieQuery defines filters, search, ordering and pagination for listing
// movies.  Zero-valued filters are not applied.
type MovieQuery struct {
	Page        int
	PerPage     int
	Genre       string
	Director    string
	ReleaseYear int
	Search      string
	SortBy      string
}

// MoviePage is one page of a movie listing.
type MoviePage struct {
	Total      int64
	TotalPages int64
	Page       int
	PerPage    int
	Movies     []model.Movie
}

// ParseMovieQuery maps listing query parameters onto a normalized
// MovieQuery.  Malformed numbers fall back to their defaults.
func ParseMovieQuery(v url.Values) MovieQuery {
	q := MovieQuery{
		Page:     intParam(v.Get("page"), DefaultPage),
		PerPage:  intParam(v.Get("per_page"), DefaultPerPage),
		Genre:    v.Get("genre"),
		Director: v.Get("director"),
		Search:   v.Get("search_query"),
		SortBy:   v.Get("sort_by"),
	}
	q.ReleaseYear = intParam(v.Get("release_year"), 0)
	return q.Normalize()
}

// Normalize clamps paging values and defaults the sort key.
func (q MovieQuery) Normalize() MovieQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	if q.SortBy != SortTicketPrice {
		q.SortBy = SortReleaseDate
	}
	if q.ReleaseYear < 0 || q.ReleaseYear > 9998 {
		q.ReleaseYear = 0
	}
	return q
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// Search runs the composed listing query: equality filters, an optional
// case-insensitive substring search across title, cast, description and
// genre, the chosen ordering, then LIMIT/OFFSET.  A page past the end
// yields an empty Movies slice.
func (r *MovieRepo) Search(ctx context.Context, q MovieQuery) (MoviePage, error) {
	q = q.Normalize()
	where := []string{}
	args := []any{}

	if q.Genre != "" {
		where = append(where, "m.genre = ?")
		args = append(args, q.Genre)
	}
	if q.Director != "" {
		where = append(where, "m.director = ?")
		args = append(args, q.Director)
	}
	if q.ReleaseYear > 0 {
		where = append(where, "m.release_date >= ? AND m.release_date < ?")
		args = append(args,
			fmt.Sprintf("%04d-01-01", q.ReleaseYear),
			fmt.Sprintf("%04d-01-01", q.ReleaseYear+1))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where, `(LOWER(m.title) LIKE ? OR LOWER(m.cast_members) LIKE ?
			OR LOWER(m.description) LIKE ? OR LOWER(m.genre) LIKE ?)`)
		args = append(args, like, like, like, like)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	page := MoviePage{Page: q.Page, PerPage: q.PerPage, Movies: []model.Movie{}}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies m WHERE "+cond, args...).Scan(&page.Total); err != nil {
		return MoviePage{}, err
	}
	page.TotalPages = (page.Total + int64(q.PerPage) - 1) / int64(q.PerPage)
	if page.Total == 0 {
		return page, nil
	}

	order := "m.release_date DESC, m.id ASC"
	if q.SortBy == SortTicketPrice {
		order = "m.ticket_price ASC, m.id ASC"
	}
	dataSQL := "SELECT " + movieColumns + " FROM movies m WHERE " + cond +
		" ORDER BY " + order + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), q.PerPage, (q.Page-1)*q.PerPage)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return MoviePage{}, err
	}
	ids := make([]uint64, 0, q.PerPage)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			rows.Close()
			return MoviePage{}, err
		}
		page.Movies = append(page.Movies, m)
		ids = append(ids, m.ID)
	}
	err = rows.Err()
	rows.Close() // release the connection before the ratings query
	if err != nil {
		return MoviePage{}, err
	}

	byMovie, err := loadRatings(ctx, r.db, ids)
	if err != nil {
		return MoviePage{}, err
	}
	for i := range page.Movies {
		page.Movies[i].Ratings = byMovie[page.Movies[i].ID]
	}
	return page, nil
}
