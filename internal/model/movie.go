package model

import (
	"database/sql"
)

// Movie represents a row in the `movies` table together with the ratings
// loaded for it.  Nullable columns use sql.Null* types so that absent values
// serialize as JSON null rather than zero values.
//
// Fields:
//
//	ID            – primary key identifier.
//	Title         – required movie title.
//	Description   – free text description.
//	ReleaseDate   – calendar release date (time component is always midnight UTC).
//	Director      – director name, matched exactly by list filters.
//	Genre         – genre name, matched exactly by list filters.
//	AverageRating – legacy denormalized rating supplied at creation.  It is
//	                persisted but never served; View computes the live mean.
//	TicketPrice   – ticket price, used by the ticket_price sort.
//	Cast          – flat cast string (column cast_members).
//	CreatorID     – user who created the movie and may mutate it.
//	Ratings       – ratings for this movie in insertion order.
type Movie struct {
	ID            uint64          // movies.id
	Title         string          // movies.title
	Description   sql.NullString  // movies.description
	ReleaseDate   sql.NullTime    // movies.release_date
	Director      sql.NullString  // movies.director
	Genre         sql.NullString  // movies.genre
	AverageRating sql.NullFloat64 // movies.average_rating (legacy)
	TicketPrice   sql.NullFloat64 // movies.ticket_price
	Cast          sql.NullString  // movies.cast_members
	CreatorID     uint64          // movies.creator_id
	Ratings       []Rating
}

// RatingEntry is the public projection of a rating inside a movie view.
type RatingEntry struct {
	UserID uint64 `json:"user_id"`
	Rating int    `json:"rating"`
}

// MovieView is the JSON representation of a movie served by the API.
type MovieView struct {
	ID            uint64        `json:"id"`
	Title         string        `json:"title"`
	Description   *string       `json:"description"`
	ReleaseDate   *string       `json:"release_date"`
	Director      *string       `json:"director"`
	Genre         *string       `json:"genre"`
	AverageRating *float64      `json:"average_rating"`
	NumRatings    int           `json:"num_ratings"`
	Ratings       []RatingEntry `json:"ratings"`
	TicketPrice   *float64      `json:"ticket_price"`
	Cast          *string       `json:"cast"`
	CreatorID     uint64        `json:"creator_id"`
}

// AverageOf returns the arithmetic mean of the rating values, or nil when
// there are none.
func AverageOf(ratings []Rating) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(ratings))
	return &avg
}

// View serializes the movie, aggregating its ratings on the fly.
func (m Movie) View() MovieView {
	entries := make([]RatingEntry, 0, len(m.Ratings))
	for _, r := range m.Ratings {
		entries = append(entries, RatingEntry{UserID: r.UserID, Rating: r.Rating})
	}
	v := MovieView{
		ID:            m.ID,
		Title:         m.Title,
		Description:   nullString(m.Description),
		Director:      nullString(m.Director),
		Genre:         nullString(m.Genre),
		AverageRating: AverageOf(m.Ratings),
		NumRatings:    len(m.Ratings),
		Ratings:       entries,
		TicketPrice:   nullFloat(m.TicketPrice),
		Cast:          nullString(m.Cast),
		CreatorID:     m.CreatorID,
	}
	if m.ReleaseDate.Valid {
		d := m.ReleaseDate.Time.UTC().Format("2006-01-02")
		v.ReleaseDate = &d
	}
	return v
}

// Views serializes a slice of movies.  The result is never nil so that empty
// pages encode as [].
func Views(movies []Movie) []MovieView {
	out := make([]MovieView, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.View())
	}
	return out
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
