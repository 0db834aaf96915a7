package middleware

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"PokerAssist/internal/domain/models"
	domrepo "PokerAssist/internal/domain/repository"
	"PokerAssist/pkg/logger"
)

// BatchProc is the minimal processor interface the pipeline needs.
type BatchProc interface {
	ProcessBatch(ctx context.Context, recs []*models.HandRecord) error
}

// HistoryPipeline decouples the advisory path from history storage: Submit never blocks,
// and a single background loop batches records into the processor.
type HistoryPipeline struct {
	proc         BatchProc
	metrics      domrepo.Metrics
	log          *logger.Logger
	batchSize    int
	batchTimeout time.Duration
	bufSize      int
	maxAttempts  int
	drainTimeout time.Duration
	bufCh        chan *models.HandRecord
	stopCh       chan struct{}
	doneCh       chan struct{}
	mu           sync.Mutex
	started      bool
	stopped      atomic.Bool
}

type PipelineOption func(*HistoryPipeline)

// WithBatchSize sets how many records trigger an immediate flush.
func WithBatchSize(n int) PipelineOption {
	return func(p *HistoryPipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithBatchTimeout sets the longest a partial batch waits before flushing.
func WithBatchTimeout(d time.Duration) PipelineOption {
	return func(p *HistoryPipeline) {
		if d > 0 {
			p.batchTimeout = d
		}
	}
}

// WithBufferSize sets the queue size; Submit drops once it is full.
func WithBufferSize(n int) PipelineOption {
	return func(p *HistoryPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithMaxAttempts sets how many times a failing batch is tried before it is dropped.
func WithMaxAttempts(n int) PipelineOption {
	return func(p *HistoryPipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func WithPipelineLogger(l *logger.Logger) PipelineOption {
	return func(p *HistoryPipeline) {
		if l != nil {
			p.log = l.With(logger.String("component", "history_pipeline"))
		}
	}
}

// NewHistoryPipeline creates a new pipeline.
func NewHistoryPipeline(proc BatchProc, metrics domrepo.Metrics, opts ...PipelineOption) *HistoryPipeline {
	p := &HistoryPipeline{
		proc:         proc,
		metrics:      metrics,
		log:          logger.NewNop(),
		batchSize:    100,
		batchTimeout: 2 * time.Second,
		bufSize:      1000,
		maxAttempts:  3,
		drainTimeout: 5 * time.Second,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.HandRecord, p.bufSize)
	return p
}

// Submit enqueues rec without blocking. It reports false when the record was dropped.
func (p *HistoryPipeline) Submit(rec *models.HandRecord) bool {
	if rec == nil || p.stopped.Load() {
		return false
	}
	select {
	case p.bufCh <- rec:
		return true
	default:
		p.metrics.RecordError("history_buffer_full")
		return false
	}
}

// Start launches the background batching loop.
func (p *HistoryPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run(ctx)
}

// Stop stops accepting records, flushes what is queued and waits for the loop to exit.
func (p *HistoryPipeline) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped.Load() {
		p.mu.Unlock()
		return
	}
	p.stopped.Store(true)
	p.mu.Unlock()
	close(p.stopCh)
	<-p.doneCh
}

func (p *HistoryPipeline) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.batchTimeout)
	defer ticker.Stop()

	batch := make([]*models.HandRecord, 0, p.batchSize)
	flush := func(fctx context.Context) {
		if len(batch) == 0 {
			return
		}
		p.deliver(fctx, batch)
		batch = make([]*models.HandRecord, 0, p.batchSize)
	}

	for {
		select {
		case <-p.stopCh:
			p.drain(&batch)
			return
		case <-ctx.Done():
			p.drain(&batch)
			return
		case rec := <-p.bufCh:
			batch = append(batch, rec)
			if len(batch) >= p.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}

// drain flushes the pending batch plus everything still queued, on a fresh deadline.
func (p *HistoryPipeline) drain(batch *[]*models.HandRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), p.drainTimeout)
	defer cancel()

	pending := *batch
	for {
		select {
		case rec := <-p.bufCh:
			pending = append(pending, rec)
			if len(pending) >= p.batchSize {
				p.deliver(ctx, pending)
				pending = make([]*models.HandRecord, 0, p.batchSize)
			}
		default:
			if len(pending) > 0 {
				p.deliver(ctx, pending)
			}
			*batch = nil
			return
		}
	}
}

func (p *HistoryPipeline) deliver(ctx context.Context, batch []*models.HandRecord) {
	start := time.Now()
	backoff := 50 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := p.proc.ProcessBatch(ctx, batch)
		if err == nil {
			p.metrics.RecordLatency("history_pipeline_flush", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("history_pipeline_flush")
		if attempt >= p.maxAttempts || ctx.Err() != nil {
			p.metrics.RecordError("history_batch_dropped")
			p.log.Error("hand history batch dropped",
				logger.Int("records", len(batch)),
				logger.Int("attempts", attempt),
				logger.Error(err),
			)
			return
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
		// exponential backoff with cap
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}
