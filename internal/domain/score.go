package domain

import "time"

// Score represents a single user's score for a movie. At most one row exists
// per (movie, user) pair; re-scoring replaces the value in place.
type Score struct {
	MovieID   string
	UserID    string
	Value     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScoreAggregate provides the derived average and count for a movie's scores.
type ScoreAggregate struct {
	Average float64
	Count   int64
}
