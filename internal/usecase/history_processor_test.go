package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"PokerAssist/internal/domain/models"
	"PokerAssist/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pubStub struct {
	batches [][]*models.HandRecord
	err     error
}

func (p *pubStub) PublishBatch(_ context.Context, recs []*models.HandRecord) error {
	p.batches = append(p.batches, recs)
	return p.err
}

type storeStub struct {
	pubStub
	rows []*models.HandRecord
}

func (s *storeStub) StoreBatch(ctx context.Context, recs []*models.HandRecord) error {
	return s.PublishBatch(ctx, recs)
}

func (s *storeStub) Query(context.Context, string, time.Time, time.Time, int) ([]*models.HandRecord, error) {
	return s.rows, nil
}

func (s *storeStub) Health(context.Context) error { return s.err }

func TestProcessBatchRoutesByBackend(t *testing.T) {
	recs := []*models.HandRecord{{ID: "1"}, {ID: "2"}}

	pub := &pubStub{}
	require.NoError(t, NewHistoryProcessor(pub, nil, nil, config.HistoryBackendKafka).ProcessBatch(context.Background(), recs))
	assert.Len(t, pub.batches, 1)

	store := &storeStub{}
	require.NoError(t, NewHistoryProcessor(nil, store, nil, config.HistoryBackendClickHouse).ProcessBatch(context.Background(), recs))
	assert.Len(t, store.batches, 1)

	assert.NoError(t, NewHistoryProcessor(nil, nil, nil, config.HistoryBackendNone).ProcessBatch(context.Background(), recs))
	assert.Error(t, NewHistoryProcessor(nil, nil, nil, config.HistoryBackendKafka).ProcessBatch(context.Background(), recs))
	assert.Error(t, NewHistoryProcessor(nil, nil, nil, "s3").ProcessBatch(context.Background(), recs))
}

func TestProcessBatchWrapsSinkError(t *testing.T) {
	boom := errors.New("broker down")
	err := NewHistoryProcessor(&pubStub{err: boom}, nil, nil, config.HistoryBackendKafka).
		ProcessBatch(context.Background(), []*models.HandRecord{{ID: "1"}})
	assert.ErrorIs(t, err, boom)
}

func TestQueryRequiresClickHouse(t *testing.T) {
	_, err := NewHistoryProcessor(&pubStub{}, nil, nil, config.HistoryBackendKafka).
		Query(context.Background(), "", time.Time{}, time.Now(), 10)
	assert.ErrorIs(t, err, ErrHistoryUnavailable)

	store := &storeStub{rows: []*models.HandRecord{{ID: "a"}}}
	rows, err := NewHistoryProcessor(nil, store, nil, config.HistoryBackendClickHouse).
		Query(context.Background(), "", time.Time{}, time.Now(), 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestHistoryHealth(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, HistoryDisabled, NewHistoryProcessor(nil, nil, nil, config.HistoryBackendNone).Health(ctx))
	assert.Equal(t, HistoryOK, NewHistoryProcessor(&pubStub{}, nil, nil, config.HistoryBackendKafka).Health(ctx))
	assert.Equal(t, HistoryOK, NewHistoryProcessor(nil, &storeStub{}, nil, config.HistoryBackendClickHouse).Health(ctx))

	down := &storeStub{pubStub: pubStub{err: errors.New("connection refused")}}
	assert.Equal(t, HistoryUnreachable, NewHistoryProcessor(nil, down, nil, config.HistoryBackendClickHouse).Health(ctx))
	assert.Equal(t, HistoryUnreachable, NewHistoryProcessor(nil, nil, nil, config.HistoryBackendClickHouse).Health(ctx))
}
