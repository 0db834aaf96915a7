package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PokerAssist/internal/domain/models"
	"PokerAssist/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProc struct {
	mu       sync.Mutex
	batches  [][]*models.HandRecord
	failures int
	block    chan struct{}
}

func (p *recordingProc) ProcessBatch(_ context.Context, recs []*models.HandRecord) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("sink unavailable")
	}
	p.batches = append(p.batches, append([]*models.HandRecord(nil), recs...))
	return nil
}

func (p *recordingProc) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func (p *recordingProc) batchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

func record(id string) *models.HandRecord {
	return &models.HandRecord{ID: id, Action: models.ActionCall}
}

func TestPipelineFlushesFullBatches(t *testing.T) {
	proc := &recordingProc{}
	p := NewHistoryPipeline(proc, metrics.Nop{}, WithBatchSize(5), WithBatchTimeout(time.Hour))
	p.Start(context.Background())
	defer p.Stop()

	for i := 0; i < 10; i++ {
		require.True(t, p.Submit(record("r")))
	}

	require.Eventually(t, func() bool { return proc.total() == 10 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, proc.batchCount())
}

func TestPipelineFlushesPartialBatchOnTimeout(t *testing.T) {
	proc := &recordingProc{}
	p := NewHistoryPipeline(proc, metrics.Nop{}, WithBatchSize(100), WithBatchTimeout(20*time.Millisecond))
	p.Start(context.Background())
	defer p.Stop()

	p.Submit(record("a"))
	p.Submit(record("b"))

	require.Eventually(t, func() bool { return proc.total() == 2 }, time.Second, 5*time.Millisecond)
}

func TestPipelineStopDrainsQueue(t *testing.T) {
	proc := &recordingProc{}
	p := NewHistoryPipeline(proc, metrics.Nop{}, WithBatchSize(1000), WithBatchTimeout(time.Hour))
	p.Start(context.Background())

	for i := 0; i < 25; i++ {
		p.Submit(record("r"))
	}
	p.Stop()

	assert.Equal(t, 25, proc.total())
	assert.False(t, p.Submit(record("late")), "stopped pipeline must reject records")
}

func TestPipelineSubmitNeverBlocksWhenFull(t *testing.T) {
	proc := &recordingProc{block: make(chan struct{})}
	p := NewHistoryPipeline(proc, metrics.Nop{}, WithBatchSize(1), WithBufferSize(2), WithBatchTimeout(time.Hour))
	p.Start(context.Background())

	accepted := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if p.Submit(record("r")) {
				accepted++
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full buffer")
	}
	assert.Less(t, accepted, 50)

	close(proc.block)
	p.Stop()
	assert.Equal(t, accepted, proc.total())
}

func TestPipelineRetriesFailedBatch(t *testing.T) {
	proc := &recordingProc{failures: 1}
	p := NewHistoryPipeline(proc, metrics.Nop{}, WithBatchSize(2), WithBatchTimeout(time.Hour), WithMaxAttempts(3))
	p.Start(context.Background())
	defer p.Stop()

	p.Submit(record("a"))
	p.Submit(record("b"))

	require.Eventually(t, func() bool { return proc.total() == 2 }, 2*time.Second, 10*time.Millisecond)
}
