package usecase

import (
	"context"
	"fmt"
	"time"

	"PokerAssist/internal/domain/models"
	drepo "PokerAssist/internal/domain/repository"
	"PokerAssist/pkg/config"
	pkgmetrics "PokerAssist/pkg/metrics"
)

const (
	HistoryDisabled    = "disabled"
	HistoryOK          = "ok"
	HistoryUnreachable = "unreachable"
)

// HistoryProcessor routes hand history batches to the configured backend.
type HistoryProcessor struct {
	pub     drepo.HistoryPublisher
	store   drepo.HistoryStorage
	metrics drepo.Metrics
	backend string
}

// NewHistoryProcessor creates a processor; only the sink matching backend needs to be non-nil.
func NewHistoryProcessor(pub drepo.HistoryPublisher, store drepo.HistoryStorage, metrics drepo.Metrics, backend string) *HistoryProcessor {
	if metrics == nil {
		metrics = pkgmetrics.Nop{}
	}
	return &HistoryProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// ProcessBatch writes records to the backend in one call.
func (p *HistoryProcessor) ProcessBatch(ctx context.Context, recs []*models.HandRecord) error {
	if len(recs) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case config.HistoryBackendKafka:
		if p.pub == nil {
			return fmt.Errorf("process batch: kafka publisher not configured")
		}
		err = p.pub.PublishBatch(ctx, recs)
	case config.HistoryBackendClickHouse:
		if p.store == nil {
			return fmt.Errorf("process batch: clickhouse storage not configured")
		}
		err = p.store.StoreBatch(ctx, recs)
	case config.HistoryBackendNone:
		return nil
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("history_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	p.metrics.RecordLatency("history_batch_"+p.backend, time.Since(start).Seconds())
	return nil
}

// Query lists recorded hands; only the ClickHouse backend supports reads.
func (p *HistoryProcessor) Query(ctx context.Context, opponentID string, from, to time.Time, limit int) ([]*models.HandRecord, error) {
	if p.backend != config.HistoryBackendClickHouse || p.store == nil {
		return nil, ErrHistoryUnavailable
	}
	return p.store.Query(ctx, opponentID, from, to, limit)
}

// Health reports the backend state for /health: disabled, ok or unreachable.
// Only ClickHouse is pinged; the Kafka writer has no cheap liveness check.
func (p *HistoryProcessor) Health(ctx context.Context) string {
	switch p.backend {
	case config.HistoryBackendNone:
		return HistoryDisabled
	case config.HistoryBackendClickHouse:
		if p.store == nil {
			return HistoryUnreachable
		}
		if err := p.store.Health(ctx); err != nil {
			p.metrics.RecordError("history_health")
			return HistoryUnreachable
		}
	}
	return HistoryOK
}
