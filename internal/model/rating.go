package model

// Rating represents a row in the `ratings` table.  A user holds at most one
// rating per movie; the composite unique key (user_id, movie_id) backs this.
type Rating struct {
	ID      uint64 // ratings.id
	Rating  int    // ratings.rating
	UserID  uint64 // ratings.user_id
	MovieID uint64 // ratings.movie_id
}

// Rating bounds accepted by the rate endpoint (inclusive).
const (
	MinRating = 0
	MaxRating = 10
)

// InRange reports whether v is an acceptable rating value.
func InRange(v int) bool { return v >= MinRating && v <= MaxRating }

// RatingSummary is the live aggregate for a movie.
type RatingSummary struct {
	MovieID       uint64   `json:"movie_id"`
	AverageRating *float64 `json:"average_rating"`
	NumRatings    int      `json:"num_ratings"`
}
