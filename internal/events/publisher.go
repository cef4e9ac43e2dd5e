// Package events publishes fire-and-forget notifications about score
// submissions. Downstream consumers (recommendations, activity feeds) must
// tolerate loss: events are emitted after commit and never retried, so the
// aggregate state never depends on the event stream.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectScoreSubmitted carries one event per accepted score submission.
const SubjectScoreSubmitted = "scores.submitted"

// ScoreSubmitted is the payload published on SubjectScoreSubmitted.
type ScoreSubmitted struct {
	EventID    string    `json:"event_id"`
	MovieID    string    `json:"movie_id"`
	UserID     string    `json:"user_id"`
	Value      float64   `json:"value"`
	Score      float64   `json:"score"`
	Count      int64     `json:"count"`
	Inserted   bool      `json:"inserted"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends events to NATS. A nil Publisher or one built with a nil
// connection is a safe no-op, so services without NATS configured skip
// publishing without branching at call sites.
type Publisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

// New creates a Publisher. Pass conn=nil to get a no-op stub.
func New(conn *nats.Conn, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{conn: conn, log: log}
}

// ScoreSubmitted publishes a score-submitted event. Failures are logged and
// never surface to the caller.
func (p *Publisher) ScoreSubmitted(event ScoreSubmitted) {
	if p == nil || p.conn == nil {
		return
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("movie_id", event.MovieID), zap.Error(err))
		return
	}
	if err := p.conn.Publish(SubjectScoreSubmitted, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", SubjectScoreSubmitted), zap.Error(err))
	}
}
