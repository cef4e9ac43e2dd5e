// Package scoring implements the score-submission use case: record one user's
// score for a movie and keep the movie's cached aggregate (average, count)
// consistent with the full set of score rows.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/screenrate/screenrate/internal/domain"
)

// ErrUnauthenticated indicates the caller's identity could not be resolved.
var ErrUnauthenticated = errors.New("scoring: unauthenticated")

// ErrMovieNotFound indicates the target movie does not exist.
var ErrMovieNotFound = errors.New("scoring: movie not found")

// ErrInvalidScore indicates the submitted value is not a finite number.
var ErrInvalidScore = errors.New("scoring: score must be a finite number")

// ErrInconsistent indicates the refreshed aggregate contradicts the write that
// just happened. It marks an internal fault, never a caller mistake.
var ErrInconsistent = errors.New("scoring: aggregate inconsistent after submission")

// Identity resolves the acting user for the current request.
type Identity interface {
	CurrentUser(ctx context.Context) (domain.User, error)
}

// MovieStore is the read side of the movie catalog needed by this use case.
type MovieStore interface {
	GetByID(ctx context.Context, id string) (domain.Movie, error)
}

// ScoreStore records scores. Rate must atomically upsert the (movie, user)
// score row, refresh the movie's aggregate columns from the complete current
// score set, and return the refreshed movie; either everything commits or
// nothing does.
type ScoreStore interface {
	Rate(ctx context.Context, movieID string, user domain.User, value float64) (domain.Movie, bool, error)
}

// NotFoundChecker reports whether a store error means "no such entity", so the
// service can translate it without importing the storage package.
type NotFoundChecker func(error) bool

// MovieView is the read-only projection of a movie returned to callers.
type MovieView struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Image *string `json:"image,omitempty"`
	Score float64 `json:"score"`
	Count int64   `json:"count"`
}

// Result pairs the refreshed movie view with whether this submission created
// a new score row (as opposed to replacing the user's previous one).
type Result struct {
	Movie    MovieView
	User     domain.User
	Inserted bool
}

// Service orchestrates score submission across its collaborators.
type Service struct {
	identity   Identity
	movies     MovieStore
	scores     ScoreStore
	isNotFound NotFoundChecker
}

// New constructs a Service. isNotFound classifies collaborator errors; pass
// nil if the stores already return ErrMovieNotFound themselves.
func New(identity Identity, movies MovieStore, scores ScoreStore, isNotFound NotFoundChecker) *Service {
	if isNotFound == nil {
		isNotFound = func(err error) bool { return errors.Is(err, ErrMovieNotFound) }
	}
	return &Service{identity: identity, movies: movies, scores: scores, isNotFound: isNotFound}
}

// Submit records the acting user's score for the movie and returns a view of
// the movie with its refreshed aggregate. Any failure aborts the whole
// operation with no persisted effect.
func (s *Service) Submit(ctx context.Context, movieID string, value float64) (Result, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Result{}, ErrInvalidScore
	}

	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return Result{}, err
	}

	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		if s.isNotFound(err) {
			return Result{}, ErrMovieNotFound
		}
		return Result{}, fmt.Errorf("load movie: %w", err)
	}

	movie, inserted, err := s.scores.Rate(ctx, movieID, user, value)
	if err != nil {
		// The existence check above ran outside the write transaction; the
		// store re-validates inside it, so a concurrent delete lands here.
		if s.isNotFound(err) {
			return Result{}, ErrMovieNotFound
		}
		return Result{}, fmt.Errorf("record score: %w", err)
	}

	if movie.ScoreCount == 0 {
		return Result{}, fmt.Errorf("%w: count is zero for movie %s", ErrInconsistent, movieID)
	}

	return Result{Movie: viewOf(movie), User: user, Inserted: inserted}, nil
}

func viewOf(movie domain.Movie) MovieView {
	return MovieView{
		ID:    movie.ID,
		Title: movie.Title,
		Image: movie.Image,
		Score: movie.Score,
		Count: movie.ScoreCount,
	}
}
