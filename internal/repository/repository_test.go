package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/iliyamo/movie-catalog/internal/database/dbtest"
	"github.com/iliyamo/movie-catalog/internal/utils"
)

func strp(s string) *string { return &s }

func f64p(f float64) *float64 { return &f }

func seedUser(t *testing.T, db *sql.DB, name string) uint64 {
	t.Helper()
	id, err := NewUserRepo(db).Create(context.Background(), name, name+"@example.com", "pw", utils.SchemeSHA256, 0)
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return id
}

func seedMovie(t *testing.T, repo *MovieRepo, in NewMovie) uint64 {
	t.Helper()
	if in.AverageRating == 0 {
		in.AverageRating = 5
	}
	m, err := repo.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create movie %q: %v", in.Title, err)
	}
	return m.ID
}

func TestUserRepo_CreateAndLookup(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "alice", "alice@example.com", "secret", utils.SchemeSHA256, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	u, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u.ID != id || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash != utils.HashPassword("secret") {
		t.Fatalf("password stored as %q", u.PasswordHash)
	}
	if u.Authenticated {
		t.Fatal("new user should not be authenticated")
	}

	if _, err := repo.Create(ctx, "alice", "other@example.com", "x", utils.SchemeSHA256, 0); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username: got %v", err)
	}
	if _, err := repo.Create(ctx, "bob", "alice@example.com", "x", utils.SchemeSHA256, 0); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email: got %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: got %v", err)
	}
}

func TestUserRepo_SetAuthenticated(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewUserRepo(db)
	ctx := context.Background()
	id := seedUser(t, db, "carol")

	if err := repo.SetAuthenticated(ctx, id, true); err != nil {
		t.Fatalf("SetAuthenticated: %v", err)
	}
	u, _ := repo.GetByID(ctx, id)
	if !u.Authenticated {
		t.Fatal("expected authenticated flag")
	}
	if err := repo.SetAuthenticated(ctx, 999, true); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: got %v", err)
	}
}

func TestUserRepo_Bcrypt(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewUserRepo(db)
	ctx := context.Background()
	if _, err := repo.Create(ctx, "dave", "dave@example.com", "hunter2", utils.SchemeBcrypt, 4); err != nil {
		t.Fatalf("Create: %v", err)
	}
	u, _ := repo.GetByUsername(ctx, "dave")
	if !utils.VerifyPassword(u.PasswordHash, "hunter2") {
		t.Fatal("bcrypt hash should verify")
	}
}

func TestMovieRepo_CreateGet(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewMovieRepo(db)
	uid := seedUser(t, db, "alice")

	id := seedMovie(t, repo, NewMovie{
		Title:       "Heat",
		ReleaseDate: "1995-12-15",
		Genre:       strp("Crime"),
		TicketPrice: f64p(9.5),
		Cast:        strp("Pacino, De Niro"),
		CreatorID:   uid,
	})
	m, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	v := m.View()
	if v.Title != "Heat" || v.ReleaseDate == nil || *v.ReleaseDate != "1995-12-15" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Description != nil {
		t.Fatalf("description should be null, got %q", *v.Description)
	}
	if v.Cast == nil || *v.Cast != "Pacino, De Niro" {
		t.Fatalf("cast not stored: %+v", v.Cast)
	}
	if v.AverageRating != nil || v.NumRatings != 0 {
		t.Fatalf("unrated movie should have no average: %+v", v)
	}

	if _, err := repo.GetByID(context.Background(), id+100); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("missing movie: got %v", err)
	}
}

func TestMovieRepo_UpdateOwnership(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewMovieRepo(db)
	ctx := context.Background()
	owner := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")
	id := seedMovie(t, repo, NewMovie{Title: "Alien", ReleaseDate: "1979-05-25", Genre: strp("Horror"), CreatorID: owner})

	if _, err := repo.UpdateByIDAndCreator(ctx, id, other, MovieUpdate{Title: strp("Aliens")}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-creator update: got %v", err)
	}
	if _, err := repo.UpdateByIDAndCreator(ctx, id+1, owner, MovieUpdate{Title: strp("x")}); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("missing movie update: got %v", err)
	}

	m, err := repo.UpdateByIDAndCreator(ctx, id, owner, MovieUpdate{Title: strp("Aliens"), TicketPrice: f64p(12)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.Title != "Aliens" || !m.TicketPrice.Valid || m.TicketPrice.Float64 != 12 {
		t.Fatalf("update not applied: %+v", m)
	}
	if !m.Genre.Valid || m.Genre.String != "Horror" {
		t.Fatalf("untouched field changed: %+v", m.Genre)
	}

	m, err = repo.UpdateByIDAndCreator(ctx, id, owner, MovieUpdate{})
	if err != nil || m.Title != "Aliens" {
		t.Fatalf("empty update: %v %+v", err, m)
	}
}

func TestMovieRepo_Delete(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewMovieRepo(db)
	ratings := NewRatingRepo(db)
	ctx := context.Background()
	owner := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")
	id := seedMovie(t, repo, NewMovie{Title: "Jaws", ReleaseDate: "1975-06-20", CreatorID: owner})
	if _, err := ratings.Upsert(ctx, id, other, 8); err != nil {
		t.Fatalf("rate: %v", err)
	}

	if err := repo.DeleteByIDAndCreator(ctx, id, other); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-creator delete: got %v", err)
	}
	if err := repo.DeleteByIDAndCreator(ctx, id, owner); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("deleted movie still present: %v", err)
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM ratings WHERE movie_id = ?", id).Scan(&n); err != nil || n != 0 {
		t.Fatalf("ratings not removed: n=%d err=%v", n, err)
	}
	if err := repo.DeleteByIDAndCreator(ctx, id, owner); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("second delete: got %v", err)
	}
}

func TestParseMovieQuery(t *testing.T) {
	cases := []struct {
		raw  string
		want MovieQuery
	}{
		{"", MovieQuery{Page: 1, PerPage: 10, SortBy: SortReleaseDate}},
		{"page=0&per_page=-3", MovieQuery{Page: 1, PerPage: 10, SortBy: SortReleaseDate}},
		{"page=abc&per_page=xyz&release_year=soon", MovieQuery{Page: 1, PerPage: 10, SortBy: SortReleaseDate}},
		{"per_page=1000&sort_by=ticket_price", MovieQuery{Page: 1, PerPage: MaxPerPage, SortBy: SortTicketPrice}},
		{"sort_by=title", MovieQuery{Page: 1, PerPage: 10, SortBy: SortReleaseDate}},
		{
			"page=3&per_page=5&genre=Drama&director=Nolan&release_year=2010&search_query=dream",
			MovieQuery{Page: 3, PerPage: 5, Genre: "Drama", Director: "Nolan", ReleaseYear: 2010, Search: "dream", SortBy: SortReleaseDate},
		},
	}
	for _, tc := range cases {
		v, err := url.ParseQuery(tc.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		if got := ParseMovieQuery(v); got != tc.want {
			t.Errorf("ParseMovieQuery(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestMovieRepo_SearchFilters(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewMovieRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "alice")

	seedMovie(t, repo, NewMovie{Title: "Inception", ReleaseDate: "2010-07-16", Genre: strp("Sci-Fi"), Director: strp("Nolan"), TicketPrice: f64p(12), CreatorID: uid})
	seedMovie(t, repo, NewMovie{Title: "Interstellar", ReleaseDate: "2014-11-07", Genre: strp("Sci-Fi"), Director: strp("Nolan"), TicketPrice: f64p(8), CreatorID: uid})
	seedMovie(t, repo, NewMovie{Title: "Memento", ReleaseDate: "2000-09-05", Genre: strp("Thriller"), Director: strp("Nolan"), TicketPrice: f64p(5), CreatorID: uid})
	seedMovie(t, repo, NewMovie{Title: "Arrival", ReleaseDate: "2016-11-11", Genre: strp("Sci-Fi"), Director: strp("Villeneuve"), Description: strp("Linguist meets aliens"), TicketPrice: f64p(10), CreatorID: uid})
	seedMovie(t, repo, NewMovie{Title: "Dune", ReleaseDate: "2021-10-22", Genre: strp("sci-fi"), Director: strp("Villeneuve"), Cast: strp("Timothee Chalamet"), CreatorID: uid})

	titles := func(p MoviePage) []string {
		out := make([]string, 0, len(p.Movies))
		for _, m := range p.Movies {
			out = append(out, m.Title)
		}
		return out
	}
	run := func(q MovieQuery) MoviePage {
		t.Helper()
		p, err := repo.Search(ctx, q)
		if err != nil {
			t.Fatalf("Search(%+v): %v", q, err)
		}
		return p
	}

	p := run(MovieQuery{Genre: "Sci-Fi"})
	if got := fmt.Sprint(titles(p)); got != "[Arrival Interstellar Inception]" || p.Total != 3 {
		t.Fatalf("genre filter: total=%d titles=%s", p.Total, got)
	}

	p = run(MovieQuery{Genre: "Sci-Fi", Search: "ALIEN"})
	if got := fmt.Sprint(titles(p)); got != "[Arrival]" {
		t.Fatalf("genre+search: %s", got)
	}

	p = run(MovieQuery{Search: "chalamet"})
	if got := fmt.Sprint(titles(p)); got != "[Dune]" {
		t.Fatalf("cast search: %s", got)
	}

	p = run(MovieQuery{Director: "Nolan", ReleaseYear: 2010})
	if got := fmt.Sprint(titles(p)); got != "[Inception]" {
		t.Fatalf("director+year: %s", got)
	}

	p = run(MovieQuery{Director: "Nolan", SortBy: SortTicketPrice})
	if got := fmt.Sprint(titles(p)); got != "[Memento Interstellar Inception]" {
		t.Fatalf("ticket_price sort: %s", got)
	}

	p = run(MovieQuery{Genre: "Western"})
	if p.Total != 0 || p.TotalPages != 0 || len(p.Movies) != 0 || p.Movies == nil {
		t.Fatalf("empty result: %+v", p)
	}
}

func TestMovieRepo_SearchPagination(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewMovieRepo(db)
	ratings := NewRatingRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "alice")
	for i := 1; i <= 5; i++ {
		id := seedMovie(t, repo, NewMovie{Title: fmt.Sprintf("Movie %d", i), ReleaseDate: fmt.Sprintf("200%d-01-01", i), CreatorID: uid})
		if _, err := ratings.Upsert(ctx, id, uid, i); err != nil {
			t.Fatalf("rate: %v", err)
		}
	}

	p, err := repo.Search(ctx, MovieQuery{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if p.Total != 5 || p.TotalPages != 3 || len(p.Movies) != 2 {
		t.Fatalf("page 1: %+v", p)
	}
	if p.Movies[0].Title != "Movie 5" || len(p.Movies[0].Ratings) != 1 || p.Movies[0].Ratings[0].Rating != 5 {
		t.Fatalf("page 1 first movie: %+v", p.Movies[0])
	}

	p, _ = repo.Search(ctx, MovieQuery{Page: 3, PerPage: 2})
	if len(p.Movies) != 1 || p.Movies[0].Title != "Movie 1" {
		t.Fatalf("page 3: %+v", p.Movies)
	}

	p, err = repo.Search(ctx, MovieQuery{Page: 4, PerPage: 2})
	if err != nil {
		t.Fatalf("page past the end: %v", err)
	}
	if len(p.Movies) != 0 || p.Page != 4 || p.TotalPages != 3 {
		t.Fatalf("page 4: %+v", p)
	}
}

func TestRatingRepo_Upsert(t *testing.T) {
	db := dbtest.Open(t)
	movies := NewMovieRepo(db)
	repo := NewRatingRepo(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	id := seedMovie(t, movies, NewMovie{Title: "Up", ReleaseDate: "2009-05-29", CreatorID: alice})

	first, err := repo.Upsert(ctx, id, alice, 7)
	if err != nil {
		t.Fatalf("first rating: %v", err)
	}
	second, err := repo.Upsert(ctx, id, alice, 9)
	if err != nil {
		t.Fatalf("second rating: %v", err)
	}
	if first.ID != second.ID || second.Rating != 9 {
		t.Fatalf("rating not overwritten: %+v then %+v", first, second)
	}

	s, err := repo.Summary(ctx, id)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.NumRatings != 1 || s.AverageRating == nil || *s.AverageRating != 9 {
		t.Fatalf("summary after overwrite: %+v", s)
	}

	if _, err := repo.Upsert(ctx, id, bob, 4); err != nil {
		t.Fatalf("bob rating: %v", err)
	}
	s, _ = repo.Summary(ctx, id)
	if s.NumRatings != 2 || *s.AverageRating != 6.5 {
		t.Fatalf("summary with two raters: %+v", s)
	}

	m, _ := movies.GetByID(ctx, id)
	if v := m.View(); v.NumRatings != 2 || v.Ratings[0].UserID != alice || v.Ratings[1].Rating != 4 {
		t.Fatalf("view ratings: %+v", v.Ratings)
	}

	if _, err := repo.Upsert(ctx, id+1, alice, 5); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("missing movie: got %v", err)
	}

	empty, _ := repo.Summary(ctx, id+1)
	if empty.AverageRating != nil || empty.NumRatings != 0 {
		t.Fatalf("summary of unrated movie: %+v", empty)
	}
}
