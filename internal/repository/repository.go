package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screenrate/screenrate/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrTransient indicates store-level contention (deadlock, serialization
// failure, lock timeout). The operation was rolled back and may be retried
// by the caller as a whole.
var ErrTransient = errors.New("repository: transient failure")

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies *MoviesRepository
	Scores *ScoresRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Movies: &MoviesRepository{pool: pool},
		Scores: &ScoresRepository{pool: pool},
	}
}

// invalidID reports whether an opaque id cannot reference a row in a
// UUID-keyed table. Ids are caller-supplied strings; one that does not even
// parse as a UUID names nothing, so lookups answer not-found without a round
// trip (and without tripping over parameter encoding).
func invalidID(id string) bool {
	return uuid.Validate(id) != nil
}

// classify maps low-level pg errors onto the repository's sentinels so callers
// can react with errors.Is instead of inspecting SQLSTATEs.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03": // serialization failure, deadlock, lock not available
			return errors.Join(ErrTransient, err)
		case "23503": // foreign key violation: referenced row vanished mid-flight
			return errors.Join(ErrNotFound, err)
		case "22P02": // invalid text representation: ids are opaque to callers,
			// so one that cannot even be cast to the column type names nothing
			return errors.Join(ErrNotFound, err)
		}
	}
	return err
}
