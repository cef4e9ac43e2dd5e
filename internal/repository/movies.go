package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screenrate/screenrate/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    id,
    title,
    image,
    score,
    score_count,
    created_at,
    updated_at
`

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Title string
	Image *string
}

// MovieUpdateParams carries the mutable descriptive fields of a movie. The
// aggregate columns are owned by the scores repository and cannot be set here.
type MovieUpdateParams struct {
	Title string
	Image *string
}

// maxSearchPage bounds the page number so page*size always fits an OFFSET.
const maxSearchPage = 1 << 20

// MovieSearchFilters encapsulates title search and pagination options.
type MovieSearchFilters struct {
	Title string
	Page  int
	Size  int
}

// MovieSearchResult returns one page of movies plus the total match count.
type MovieSearchResult struct {
	Items []domain.Movie
	Page  int
	Size  int
	Total int64
}

// Create inserts a new movie row and returns the stored entity.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies (title, image)
        VALUES ($1,$2)
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, params.Title, params.Image)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, classify(err)
	}
	return movie, nil
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id string) (domain.Movie, error) {
	if invalidID(id) {
		return domain.Movie{}, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	row := r.pool.QueryRow(ctx, query, id)
	movie, err := scanMovie(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, classify(err)
	}
	return movie, nil
}

// Update replaces a movie's descriptive fields, leaving the aggregate intact.
func (r *MoviesRepository) Update(ctx context.Context, id string, params MovieUpdateParams) (domain.Movie, error) {
	if invalidID(id) {
		return domain.Movie{}, ErrNotFound
	}
	query := fmt.Sprintf(`
        UPDATE movies
        SET title = $2,
            image = $3,
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, id, params.Title, params.Image)
	movie, err := scanMovie(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, classify(err)
	}
	return movie, nil
}

// Delete removes a movie. Its score rows go with it via the cascading FK.
func (r *MoviesRepository) Delete(ctx context.Context, id string) error {
	if invalidID(id) {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Search returns one page of movies whose title matches the filter, newest
// first, together with the total number of matches.
func (r *MoviesRepository) Search(ctx context.Context, filters MovieSearchFilters) (MovieSearchResult, error) {
	if filters.Page < 0 {
		filters.Page = 0
	} else if filters.Page > maxSearchPage {
		filters.Page = maxSearchPage
	}
	if filters.Size <= 0 {
		filters.Size = 20
	} else if filters.Size > 100 {
		filters.Size = 100
	}

	where := ""
	args := []interface{}{}
	if title := strings.TrimSpace(filters.Title); title != "" {
		args = append(args, "%"+title+"%")
		where = fmt.Sprintf(" WHERE title ILIKE $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM movies"+where, args...).Scan(&total); err != nil {
		return MovieSearchResult{}, classify(err)
	}

	args = append(args, filters.Size, filters.Page*filters.Size)
	query := fmt.Sprintf(`SELECT %s FROM movies%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		movieColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return MovieSearchResult{}, classify(err)
	}
	defer rows.Close()

	items := make([]domain.Movie, 0, filters.Size)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return MovieSearchResult{}, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return MovieSearchResult{}, classify(err)
	}

	return MovieSearchResult{
		Items: items,
		Page:  filters.Page,
		Size:  filters.Size,
		Total: total,
	}, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Image,
		&movie.Score,
		&movie.ScoreCount,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
