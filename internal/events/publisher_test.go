package events

import "testing"

func TestPublisherNilSafety(t *testing.T) {
	event := ScoreSubmitted{MovieID: "m1", UserID: "u1", Value: 4.5}

	var nilPublisher *Publisher
	nilPublisher.ScoreSubmitted(event)

	New(nil, nil).ScoreSubmitted(event)
}
