package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-catalog/internal/database"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// RatingRepo manages persistence for ratings.
type RatingRepo struct {
	db *sql.DB
}

// NewRatingRepo constructs a RatingRepo.
func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// Upsert records userID's rating of movieID, overwriting any earlier rating
// by the same user.  The check and the write share one transaction; an
// insert that loses a race against a concurrent insert falls back to an
// update so exactly one row per (user, movie) remains.
func (r *RatingRepo) Upsert(ctx context.Context, movieID, userID uint64, value int) (model.Rating, error) {
	var out model.Rating
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM movies WHERE id = ?", movieID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMovieNotFound
		}
		if err != nil {
			return err
		}

		out = model.Rating{Rating: value, UserID: userID, MovieID: movieID}
		err = tx.QueryRowContext(ctx,
			"SELECT id FROM ratings WHERE user_id = ? AND movie_id = ?", userID, movieID).Scan(&out.ID)
		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx, "UPDATE ratings SET rating = ? WHERE id = ?", value, out.ID)
			return err
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO ratings (rating, user_id, movie_id) VALUES (?, ?, ?)", value, userID, movieID)
		if err != nil {
			if !database.IsDuplicateKey(err) {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE ratings SET rating = ? WHERE user_id = ? AND movie_id = ?", value, userID, movieID); err != nil {
				return err
			}
			return tx.QueryRowContext(ctx,
				"SELECT id FROM ratings WHERE user_id = ? AND movie_id = ?", userID, movieID).Scan(&out.ID)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out.ID = uint64(id)
		return nil
	})
	if err != nil {
		return model.Rating{}, err
	}
	return out, nil
}

// Summary returns the live average and count of movieID's ratings.
func (r *RatingRepo) Summary(ctx context.Context, movieID uint64) (model.RatingSummary, error) {
	var (
		avg sql.NullFloat64
		n   int
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT AVG(rating), COUNT(*) FROM ratings WHERE movie_id = ?", movieID).Scan(&avg, &n)
	if err != nil {
		return model.RatingSummary{}, err
	}
	s := model.RatingSummary{MovieID: movieID, NumRatings: n}
	if avg.Valid {
		v := avg.Float64
		s.AverageRating = &v
	}
	return s, nil
}
