package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/screenrate/screenrate/internal/domain"
)

type fakeIdentity struct {
	user domain.User
	err  error
}

func (f fakeIdentity) CurrentUser(ctx context.Context) (domain.User, error) {
	if f.err != nil {
		return domain.User{}, f.err
	}
	return f.user, nil
}

type fakeMovies struct {
	movies map[string]domain.Movie
}

func (f *fakeMovies) GetByID(ctx context.Context, id string) (domain.Movie, error) {
	movie, ok := f.movies[id]
	if !ok {
		return domain.Movie{}, ErrMovieNotFound
	}
	return movie, nil
}

// fakeScores mirrors the store contract in memory: replace-on-conflict keyed
// by (movie, user), aggregate recomputed from the full score set.
type fakeScores struct {
	movies  *fakeMovies
	byMovie map[string]map[string]float64
	err     error
}

func newFakeScores(movies *fakeMovies) *fakeScores {
	return &fakeScores{movies: movies, byMovie: make(map[string]map[string]float64)}
}

func (f *fakeScores) Rate(ctx context.Context, movieID string, user domain.User, value float64) (domain.Movie, bool, error) {
	if f.err != nil {
		return domain.Movie{}, false, f.err
	}
	movie, ok := f.movies.movies[movieID]
	if !ok {
		return domain.Movie{}, false, ErrMovieNotFound
	}
	if f.byMovie[movieID] == nil {
		f.byMovie[movieID] = make(map[string]float64)
	}
	_, existed := f.byMovie[movieID][user.ID]
	f.byMovie[movieID][user.ID] = value

	sum := 0.0
	for _, v := range f.byMovie[movieID] {
		sum += v
	}
	movie.ScoreCount = int64(len(f.byMovie[movieID]))
	movie.Score = sum / float64(movie.ScoreCount)
	f.movies.movies[movieID] = movie
	return movie, !existed, nil
}

func newTestService(identity Identity) (*Service, *fakeMovies, *fakeScores) {
	movies := &fakeMovies{movies: map[string]domain.Movie{
		"m1": {ID: "m1", Title: "The Witness"},
	}}
	scores := newFakeScores(movies)
	return New(identity, movies, scores, nil), movies, scores
}

func TestSubmitReturnsRefreshedView(t *testing.T) {
	svc, _, _ := newTestService(fakeIdentity{user: domain.User{ID: "alice"}})

	result, err := svc.Submit(context.Background(), "m1", 5.0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Inserted {
		t.Fatalf("expected first submission to insert")
	}
	if result.Movie.ID != "m1" || result.Movie.Title != "The Witness" {
		t.Fatalf("view = %+v, want movie m1 passed through", result.Movie)
	}
	if result.Movie.Score != 5.0 || result.Movie.Count != 1 {
		t.Fatalf("aggregate = (%v, %d), want (5.0, 1)", result.Movie.Score, result.Movie.Count)
	}
}

func TestSubmitSequenceKeepsAggregateConsistent(t *testing.T) {
	movies := &fakeMovies{movies: map[string]domain.Movie{"m1": {ID: "m1", Title: "M"}}}
	scores := newFakeScores(movies)
	ctx := context.Background()

	submit := func(userID string, value float64) Result {
		t.Helper()
		svc := New(fakeIdentity{user: domain.User{ID: userID}}, movies, scores, nil)
		result, err := svc.Submit(ctx, "m1", value)
		if err != nil {
			t.Fatalf("Submit(%s, %v): %v", userID, value, err)
		}
		return result
	}

	if r := submit("a", 5.0); r.Movie.Count != 1 || r.Movie.Score != 5.0 {
		t.Fatalf("after A=5.0: (%v, %d), want (5.0, 1)", r.Movie.Score, r.Movie.Count)
	}
	if r := submit("b", 3.0); r.Movie.Count != 2 || r.Movie.Score != 4.0 {
		t.Fatalf("after B=3.0: (%v, %d), want (4.0, 2)", r.Movie.Score, r.Movie.Count)
	}
	// A re-scores: the row is replaced, not duplicated.
	r := submit("a", 1.0)
	if r.Inserted {
		t.Fatalf("expected replace, not insert")
	}
	if r.Movie.Count != 2 || r.Movie.Score != 2.0 {
		t.Fatalf("after A=1.0: (%v, %d), want (2.0, 2)", r.Movie.Score, r.Movie.Count)
	}
}

func TestSubmitUnauthenticated(t *testing.T) {
	svc, _, scores := newTestService(fakeIdentity{err: ErrUnauthenticated})

	_, err := svc.Submit(context.Background(), "m1", 4.0)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if len(scores.byMovie) != 0 {
		t.Fatalf("identity failure must not write scores")
	}
}

func TestSubmitMovieNotFound(t *testing.T) {
	svc, _, scores := newTestService(fakeIdentity{user: domain.User{ID: "alice"}})

	_, err := svc.Submit(context.Background(), "missing", 4.0)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("err = %v, want ErrMovieNotFound", err)
	}
	if len(scores.byMovie["missing"]) != 0 {
		t.Fatalf("not-found must leave the score store unmodified")
	}
}

func TestSubmitMovieDeletedDuringWrite(t *testing.T) {
	// The movie passes the existence check but the store reports not-found
	// when writing (concurrent delete). The caller still sees not-found.
	movies := &fakeMovies{movies: map[string]domain.Movie{"m1": {ID: "m1"}}}
	scores := newFakeScores(movies)
	scores.err = ErrMovieNotFound
	svc := New(fakeIdentity{user: domain.User{ID: "alice"}}, movies, scores, nil)

	_, err := svc.Submit(context.Background(), "m1", 4.0)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("err = %v, want ErrMovieNotFound", err)
	}
}

func TestSubmitStoreFailurePropagates(t *testing.T) {
	movies := &fakeMovies{movies: map[string]domain.Movie{"m1": {ID: "m1"}}}
	scores := newFakeScores(movies)
	storeErr := errors.New("deadlock detected")
	scores.err = storeErr
	svc := New(fakeIdentity{user: domain.User{ID: "alice"}}, movies, scores, nil)

	_, err := svc.Submit(context.Background(), "m1", 4.0)
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}

type zeroCountScores struct{ movies *fakeMovies }

func (z zeroCountScores) Rate(ctx context.Context, movieID string, user domain.User, value float64) (domain.Movie, bool, error) {
	return domain.Movie{ID: movieID, ScoreCount: 0}, true, nil
}

func TestSubmitZeroCountAfterUpsertIsInternalFault(t *testing.T) {
	movies := &fakeMovies{movies: map[string]domain.Movie{"m1": {ID: "m1"}}}
	svc := New(fakeIdentity{user: domain.User{ID: "alice"}}, movies, zeroCountScores{movies}, nil)

	_, err := svc.Submit(context.Background(), "m1", 4.0)
	if !errors.Is(err, ErrInconsistent) {
		t.Fatalf("err = %v, want ErrInconsistent", err)
	}
}

func TestSubmitRejectsNonFiniteValues(t *testing.T) {
	svc, _, scores := newTestService(fakeIdentity{user: domain.User{ID: "alice"}})

	for _, value := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := svc.Submit(context.Background(), "m1", value); !errors.Is(err, ErrInvalidScore) {
			t.Fatalf("Submit(%v) err = %v, want ErrInvalidScore", value, err)
		}
	}
	if len(scores.byMovie) != 0 {
		t.Fatalf("invalid values must not reach the store")
	}
}
