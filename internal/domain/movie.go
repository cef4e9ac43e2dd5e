package domain

import "time"

// Movie represents the canonical movie entity in the database/service.
// Score and ScoreCount are a derived projection over the movie's score rows;
// they are rewritten on every score submission and never edited directly.
type Movie struct {
	ID         string
	Title      string
	Image      *string
	Score      float64
	ScoreCount int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
