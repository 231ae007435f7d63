// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import "time"

// Activity event types.
const (
	MovieCreated    = "movie.created"
	MovieUpdated    = "movie.updated"
	MovieDeleted    = "movie.deleted"
	RatingSubmitted = "rating.submitted"
)

// ActivityEvent is published after a successful catalog mutation.  It carries
// enough context for downstream consumers to log or aggregate activity
// without querying the primary database.  Rating is set only for
// rating.submitted; Title is empty for movie.deleted.
type ActivityEvent struct {
	Type       string `json:"type"`
	UserID     uint64 `json:"user_id"`
	MovieID    uint64 `json:"movie_id"`
	Rating     *int   `json:"rating,omitempty"`
	Title      string `json:"title,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// NewActivityEvent stamps an event with the current UTC time.
func NewActivityEvent(typ string, userID, movieID uint64) ActivityEvent {
	return ActivityEvent{
		Type:       typ,
		UserID:     userID,
		MovieID:    movieID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
