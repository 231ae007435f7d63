package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-catalog/internal/database"
	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/utils"
)

// UserRepo manages persistence for users.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
)

const userColumns = "id, username, email, password, authenticated, created_at"

// Create hashes the password with scheme and inserts the user, returning its
// ID.  The username check runs first so the common case gets a precise
// error; the unique keys still catch races and duplicate emails.
func (r *UserRepo) Create(ctx context.Context, username, email, password, scheme string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if _, err := r.GetByUsername(ctx, username); err == nil {
		return 0, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return 0, err
	}

	hash, err := utils.HashPasswordWith(scheme, password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password) VALUES (?,?,?)",
		username, email, hash)
	if err != nil {
		if database.IsDuplicateKey(err) {
			if _, lookupErr := r.GetByUsername(ctx, username); lookupErr == nil {
				return 0, ErrUsernameTaken
			}
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SetAuthenticated records the login state of a user.
func (r *UserRepo) SetAuthenticated(ctx context.Context, id uint64, authenticated bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET authenticated=? WHERE id=?", authenticated, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for unchanged rows, so confirm the user exists
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Authenticated, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}
