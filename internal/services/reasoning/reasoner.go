package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"PokerAssist/internal/domain/models"
	domrepo "PokerAssist/internal/domain/repository"
	domsvc "PokerAssist/internal/domain/service"
	"PokerAssist/pkg/cache"
	"PokerAssist/pkg/config"
	xhttp "PokerAssist/pkg/http"
	"PokerAssist/pkg/logger"
	"PokerAssist/pkg/metrics"
)

const cachePrefix = "reasoning"

// Generator produces explanation text for a context; RemoteReasoner is the production one.
type Generator interface {
	Generate(ctx context.Context, rc models.ReasoningContext) (string, error)
}

// FallbackReasoner makes a single bounded attempt at the Generator and answers with the
// template text whenever that attempt fails, times out or comes back empty.
type FallbackReasoner struct {
	remote   Generator
	fallback *TemplateReasoner
	timeout  time.Duration
	cache    cache.Service
	cacheTTL time.Duration
	metrics  domrepo.Metrics
	log      *logger.Logger
}

type Option func(*FallbackReasoner)

func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(r *FallbackReasoner) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

func WithMetrics(m domrepo.Metrics) Option {
	return func(r *FallbackReasoner) {
		if m != nil {
			r.metrics = m
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(r *FallbackReasoner) {
		if l != nil {
			r.log = l
		}
	}
}

func NewFallbackReasoner(remote Generator, timeout time.Duration, opts ...Option) *FallbackReasoner {
	r := &FallbackReasoner{
		remote:   remote,
		fallback: NewTemplateReasoner(),
		timeout:  timeout,
		metrics:  metrics.Nop{},
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewReasoner picks the implementation once from configuration: without a credential every
// explanation is a template, otherwise remote calls are attempted with template fallback.
func NewReasoner(cfg *config.Config, c cache.Service, m domrepo.Metrics, l *logger.Logger) domsvc.Reasoner {
	if !cfg.RemoteReasoningEnabled() {
		if l != nil {
			l.Info("reasoning provider credential not set, using template explanations")
		}
		return NewTemplateReasoner()
	}
	return NewFallbackReasoner(
		NewRemoteReasoner(cfg),
		cfg.Reasoning.Timeout,
		WithCache(c, cfg.Reasoning.CacheTTL),
		WithMetrics(m),
		WithLogger(l),
	)
}

func (r *FallbackReasoner) Mode() string { return ModeRemote }

func (r *FallbackReasoner) Explain(ctx context.Context, rc models.ReasoningContext) models.Explanation {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	key := cacheKey(rc)
	if r.cache != nil {
		var text string
		if err := r.cache.Get(ctx, key, &text); err == nil && text != "" {
			r.metrics.RecordReasoning(models.ReasoningCache)
			return models.Explanation{Text: text, Source: models.ReasoningCache}
		}
	}

	start := time.Now()
	text, err := r.generate(ctx, rc)
	r.metrics.RecordLatency("reasoning_remote", time.Since(start).Seconds())
	if err != nil {
		reason := fallbackReason(err)
		r.log.Warn("remote reasoning failed, using template",
			logger.String("reason", reason),
			logger.String("action", string(rc.Action)),
			logger.Error(err),
		)
		r.metrics.RecordFallback(reason)
		r.metrics.RecordReasoning(models.ReasoningTemplate)
		return r.fallback.Explain(ctx, rc)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, text, r.cacheTTL); err != nil {
			r.log.Debug("reasoning cache set failed", logger.Error(err))
		}
	}
	r.metrics.RecordReasoning(models.ReasoningRemote)
	return models.Explanation{Text: text, Source: models.ReasoningRemote}
}

// generate runs the attempt in its own goroutine so a Generator that ignores ctx still
// cannot hold the caller past the deadline.
func (r *FallbackReasoner) generate(ctx context.Context, rc models.ReasoningContext) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := r.remote.Generate(ctx, rc)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		text := strings.TrimSpace(res.text)
		if text == "" {
			return "", ErrEmptyCompletion
		}
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func fallbackReason(err error) string {
	var se *xhttp.StatusError
	switch {
	case errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	default:
		return "error"
	}
}

func cacheKey(rc models.ReasoningContext) string {
	raw, _ := json.Marshal(rc)
	return cache.GenerateKey(cachePrefix, cache.HashKey(raw))
}

var _ domsvc.Reasoner = (*FallbackReasoner)(nil)
