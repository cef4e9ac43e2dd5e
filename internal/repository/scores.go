package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screenrate/screenrate/internal/domain"
)

// ScoresRepository provides helpers for per-user movie scores and the movie
// aggregate derived from them.
type ScoresRepository struct {
	pool *pgxpool.Pool
}

// RateParams captures the payload required to record a score.
type RateParams struct {
	MovieID  string
	UserID   string
	Username string
	Value    float64
}

// Rate records a user's score for a movie and refreshes the movie's aggregate
// columns, all inside one transaction. It returns the refreshed movie and
// whether the score row was newly created (false means an existing score was
// replaced in place).
//
// The initial SELECT ... FOR UPDATE pins the movie row for the duration of the
// transaction: concurrent submissions for the same movie serialize on it, so
// every aggregate refresh runs against a snapshot that already contains all
// previously committed score rows. It also re-validates existence, closing the
// race with a concurrent delete.
func (r *ScoresRepository) Rate(ctx context.Context, params RateParams) (domain.Movie, bool, error) {
	if invalidID(params.MovieID) {
		return domain.Movie{}, false, ErrNotFound
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Movie{}, false, classify(err)
	}
	defer tx.Rollback(ctx)

	var movieID string
	err = tx.QueryRow(ctx, `SELECT id FROM movies WHERE id = $1 FOR UPDATE`, params.MovieID).Scan(&movieID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Movie{}, false, ErrNotFound
		}
		return domain.Movie{}, false, classify(err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO users (id, username)
        VALUES ($1, NULLIF($2, ''))
        ON CONFLICT (id)
        DO UPDATE SET username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
                      last_seen_at = now()
    `, params.UserID, params.Username)
	if err != nil {
		return domain.Movie{}, false, classify(err)
	}

	var inserted bool
	err = tx.QueryRow(ctx, `
        INSERT INTO scores (movie_id, user_id, value)
        VALUES ($1,$2,$3)
        ON CONFLICT (movie_id, user_id)
        DO UPDATE SET value = EXCLUDED.value, updated_at = now()
        RETURNING (xmax = 0) AS inserted
    `, params.MovieID, params.UserID, params.Value).Scan(&inserted)
	if err != nil {
		return domain.Movie{}, false, classify(err)
	}

	query := fmt.Sprintf(`
        UPDATE movies m
        SET score = COALESCE(agg.average, 0),
            score_count = agg.total,
            updated_at = now()
        FROM (
            SELECT AVG(value) AS average, COUNT(*) AS total
            FROM scores
            WHERE movie_id = $1
        ) agg
        WHERE m.id = $1
        RETURNING %s
    `, movieColumns)

	movie, err := scanMovie(tx.QueryRow(ctx, query, params.MovieID))
	if err != nil {
		return domain.Movie{}, false, classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Movie{}, false, classify(err)
	}
	return movie, inserted, nil
}

// Get retrieves a score for a specific user/movie combination.
func (r *ScoresRepository) Get(ctx context.Context, movieID, userID string) (domain.Score, error) {
	if invalidID(movieID) {
		return domain.Score{}, ErrNotFound
	}
	const query = `
        SELECT movie_id, user_id, value, created_at, updated_at
        FROM scores
        WHERE movie_id = $1 AND user_id = $2
    `
	var score domain.Score
	err := r.pool.QueryRow(ctx, query, movieID, userID).Scan(
		&score.MovieID,
		&score.UserID,
		&score.Value,
		&score.CreatedAt,
		&score.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Score{}, ErrNotFound
		}
		return domain.Score{}, classify(err)
	}
	return score, nil
}

// Aggregate recomputes the score average and count for a movie straight from
// the score rows, bypassing the cached columns. Used by tests to assert the
// cached aggregate never drifts from its source of truth.
func (r *ScoresRepository) Aggregate(ctx context.Context, movieID string) (domain.ScoreAggregate, error) {
	const query = `
        SELECT COALESCE(AVG(value), 0) AS average,
               COUNT(*) AS total
        FROM scores
        WHERE movie_id = $1
    `
	var agg domain.ScoreAggregate
	if err := r.pool.QueryRow(ctx, query, movieID).Scan(&agg.Average, &agg.Count); err != nil {
		return domain.ScoreAggregate{}, fmt.Errorf("aggregate scores: %w", err)
	}
	return agg, nil
}

// AllForMovie lists every score row attached to a movie.
func (r *ScoresRepository) AllForMovie(ctx context.Context, movieID string) ([]domain.Score, error) {
	const query = `
        SELECT movie_id, user_id, value, created_at, updated_at
        FROM scores
        WHERE movie_id = $1
        ORDER BY created_at, user_id
    `
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var scores []domain.Score
	for rows.Next() {
		var score domain.Score
		if err := rows.Scan(&score.MovieID, &score.UserID, &score.Value, &score.CreatedAt, &score.UpdatedAt); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return scores, nil
}
