package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-catalog/internal/database"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// ErrMovieNotFound indicates that a movie was not located in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo manages persistence for movies and the ratings loaded with them.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// NewMovie carries the validated fields of a movie being created.
// ReleaseDate is a YYYY-MM-DD string; optional fields are nil when absent.
type NewMovie struct {
	Title         string
	Description   *string
	ReleaseDate   string
	Director      *string
	Genre         *string
	AverageRating float64
	TicketPrice   *float64
	Cast          *string
	CreatorID     uint64
}

// MovieUpdate is a partial update.  Nil fields keep their stored value.
type MovieUpdate struct {
	Title       *string
	Description *string
	ReleaseDate *string
	Director    *string
	Genre       *string
	TicketPrice *float64
	Cast        *string
}

// Empty reports whether the update changes nothing.
func (u MovieUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.ReleaseDate == nil &&
		u.Director == nil && u.Genre == nil && u.TicketPrice == nil && u.Cast == nil
}

const movieColumns = `m.id, m.title, m.description, m.release_date, m.director, m.genre,
		m.average_rating, m.ticket_price, m.cast_members, m.creator_id`

// Create inserts a movie and returns it as stored.
func (r *MovieRepo) Create(ctx context.Context, in NewMovie) (model.Movie, error) {
	const q = `INSERT INTO movies
		(title, description, release_date, director, genre, average_rating, ticket_price, cast_members, creator_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		in.Title, in.Description, in.ReleaseDate, in.Director, in.Genre,
		in.AverageRating, in.TicketPrice, in.Cast, in.CreatorID)
	if err != nil {
		return model.Movie{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Movie{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns the movie with its ratings, or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := getMovie(ctx, r.db, id)
	if err != nil {
		return model.Movie{}, err
	}
	byMovie, err := loadRatings(ctx, r.db, []uint64{m.ID})
	if err != nil {
		return model.Movie{}, err
	}
	m.Ratings = byMovie[m.ID]
	return m, nil
}

// UpdateByIDAndCreator applies u to the movie if creatorID owns it.  It
// returns ErrMovieNotFound when the movie does not exist and ErrForbidden
// when another user created it.
func (r *MovieRepo) UpdateByIDAndCreator(ctx context.Context, id, creatorID uint64, u MovieUpdate) (model.Movie, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkCreator(ctx, tx, id, creatorID); err != nil {
			return err
		}
		if u.Empty() {
			return nil
		}
		sets := []string{}
		args := []any{}
		add := func(col string, v any) {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
		if u.Title != nil {
			add("title", *u.Title)
		}
		if u.Description != nil {
			add("description", *u.Description)
		}
		if u.ReleaseDate != nil {
			add("release_date", *u.ReleaseDate)
		}
		if u.Director != nil {
			add("director", *u.Director)
		}
		if u.Genre != nil {
			add("genre", *u.Genre)
		}
		if u.TicketPrice != nil {
			add("ticket_price", *u.TicketPrice)
		}
		if u.Cast != nil {
			add("cast_members", *u.Cast)
		}
		args = append(args, id)
		_, err := tx.ExecContext(ctx, "UPDATE movies SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		return err
	})
	if err != nil {
		return model.Movie{}, err
	}
	return r.GetByID(ctx, id)
}

// DeleteByIDAndCreator removes the movie and its ratings if creatorID owns
// it.  Error semantics match UpdateByIDAndCreator.
func (r *MovieRepo) DeleteByIDAndCreator(ctx context.Context, id, creatorID uint64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkCreator(ctx, tx, id, creatorID); err != nil {
			return err
		}
		// ratings cascade via the FK, but not every SQLite connection has
		// foreign keys enabled, so clear them explicitly
		if _, err := tx.ExecContext(ctx, "DELETE FROM ratings WHERE movie_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
		return err
	})
}

func checkCreator(ctx context.Context, q queryer, id, creatorID uint64) error {
	var owner uint64
	err := q.QueryRowContext(ctx, "SELECT creator_id FROM movies WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMovieNotFound
	}
	if err != nil {
		return err
	}
	if owner != creatorID {
		return ErrForbidden
	}
	return nil
}

func getMovie(ctx context.Context, q queryer, id uint64) (model.Movie, error) {
	row := q.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies m WHERE m.id = ?", id)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, ErrMovieNotFound
	}
	return m, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner) (model.Movie, error) {
	var m model.Movie
	err := s.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.ReleaseDate,
		&m.Director,
		&m.Genre,
		&m.AverageRating,
		&m.TicketPrice,
		&m.Cast,
		&m.CreatorID,
	)
	return m, err
}

// loadRatings fetches the ratings of every movie in ids with one query,
// grouped by movie id in insertion order.
func loadRatings(ctx context.Context, q queryer, ids []uint64) (map[uint64][]model.Rating, error) {
	out := make(map[uint64][]model.Rating, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx,
		"SELECT id, rating, user_id, movie_id FROM ratings WHERE movie_id IN ("+marks+") ORDER BY id ASC",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rt model.Rating
		if err := rows.Scan(&rt.ID, &rt.Rating, &rt.UserID, &rt.MovieID); err != nil {
			return nil, err
		}
		out[rt.MovieID] = append(out[rt.MovieID], rt)
	}
	return out, rows.Err()
}
