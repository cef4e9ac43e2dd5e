package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/screenrate/screenrate/internal/events"
	"github.com/screenrate/screenrate/internal/repository"
	"github.com/screenrate/screenrate/internal/scoring"
)

const (
	minScore = 0.0
	maxScore = 5.0
)

type scoreRequest struct {
	Score float64 `json:"score"`
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "id")

	var req scoreRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Score < minScore || req.Score > maxScore {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "score must be between 0 and 5")
		return
	}

	result, err := s.scoring.Submit(r.Context(), movieID, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, scoring.ErrUnauthenticated):
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		case errors.Is(err, scoring.ErrMovieNotFound):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		case errors.Is(err, scoring.ErrInvalidScore):
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "score must be a finite number")
		case errors.Is(err, repository.ErrTransient):
			s.respondError(w, http.StatusServiceUnavailable, "TRY_AGAIN", "Temporary contention, retry the request")
		default:
			s.logger.Error("submit score failed", zap.String("movie_id", movieID), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process score")
		}
		return
	}

	s.publisher.ScoreSubmitted(events.ScoreSubmitted{
		MovieID:  result.Movie.ID,
		UserID:   result.User.ID,
		Value:    req.Score,
		Score:    result.Movie.Score,
		Count:    result.Movie.Count,
		Inserted: result.Inserted,
	})

	status := http.StatusOK
	if result.Inserted {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, result.Movie)
}
