package repository

import (
	"context"
	"time"

	"PokerAssist/internal/domain/models"
)

// ProfileStore keeps per-opponent counters for the lifetime of the process.
type ProfileStore interface {
	// Update atomically applies one observation to the opponent's counters.
	Update(opponentID string, playedHand, voluntarilyEntered, preflopRaise bool)
	// Get returns the current counters, or a zero profile for unknown ids.
	Get(opponentID string) models.OpponentProfile
	// Len returns the number of tracked opponents.
	Len() int
}

// HistorySink accepts advised hands without blocking the caller.
type HistorySink interface {
	Submit(rec *models.HandRecord) bool
}

type HistoryPublisher interface {
	PublishBatch(ctx context.Context, recs []*models.HandRecord) error
}

type HistoryStorage interface {
	StoreBatch(ctx context.Context, recs []*models.HandRecord) error
	Query(ctx context.Context, opponentID string, from, to time.Time, limit int) ([]*models.HandRecord, error)
	Health(ctx context.Context) error
}

type Metrics interface {
	RecordAdvisory(action models.Action, label models.Label)
	RecordReasoning(source models.ReasoningSource)
	RecordFallback(reason string)
	RecordObservation(source string)
	RecordTrackedOpponents(n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
