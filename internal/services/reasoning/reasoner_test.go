package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"PokerAssist/internal/domain/models"
	"PokerAssist/pkg/cache"
	"PokerAssist/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu        sync.Mutex
	fallbacks []string
	sources   []models.ReasoningSource
}

func (m *recordingMetrics) RecordAdvisory(models.Action, models.Label) {}
func (m *recordingMetrics) RecordObservation(string)                   {}
func (m *recordingMetrics) RecordTrackedOpponents(int)                 {}
func (m *recordingMetrics) RecordError(string)                         {}
func (m *recordingMetrics) RecordLatency(string, float64)              {}

func (m *recordingMetrics) RecordFallback(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append(m.fallbacks, reason)
}

func (m *recordingMetrics) RecordReasoning(source models.ReasoningSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, source)
}

type stubGenerator func(ctx context.Context, rc models.ReasoningContext) (string, error)

func (f stubGenerator) Generate(ctx context.Context, rc models.ReasoningContext) (string, error) {
	return f(ctx, rc)
}

func raiseContext() models.ReasoningContext {
	return models.ReasoningContext{
		HoleCards: []string{"AS", "AC"},
		PotSize:   10,
		Label:     models.LabelLoosePassive,
		VPIP:      60,
		PFR:       10,
		Action:    models.ActionRaise,
	}
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	cfg.Reasoning.BaseURL = baseURL
	cfg.Reasoning.APIKey = "test-key"
	cfg.Reasoning.Timeout = 500 * time.Millisecond
	return cfg
}

func TestTemplateCoversEveryActionAndLabel(t *testing.T) {
	tr := NewTemplateReasoner()
	for _, a := range models.Actions() {
		for _, l := range models.Labels() {
			exp := tr.Explain(context.Background(), models.ReasoningContext{Action: a, Label: l})
			assert.NotEmpty(t, exp.Text, "%s/%s", a, l)
			assert.Equal(t, models.ReasoningTemplate, exp.Source)
		}
	}
}

func TestTemplateTexts(t *testing.T) {
	assert.Equal(t,
		"Opponent is a Loose Passive (Calling Station). Isolate them for value with your strong equity.",
		templateText(models.ActionRaise, models.LabelLoosePassive))
	assert.Equal(t,
		"You have the range advantage here. A raise applies maximum fold equity.",
		templateText(models.ActionRaise, models.LabelTightPassive))
	assert.Equal(t,
		"Opponent is Tight Aggressive (TAG). Keep their bluffs in the pot with a call.",
		templateText(models.ActionCall, models.LabelTightAggressive))
	assert.Equal(t,
		"You have pot odds to draw, but not enough equity to inflate the pot.",
		templateText(models.ActionCall, models.LabelUnknown))
	assert.Equal(t,
		"Your equity is too low against the opponent's range to continue.",
		templateText(models.ActionFold, models.LabelLooseAggressive))
}

func TestNewReasonerWithoutCredentialUsesTemplate(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	r := NewReasoner(cfg, nil, nil, nil)
	_, ok := r.(*TemplateReasoner)
	assert.True(t, ok)
	assert.Equal(t, ModeTemplate, r.Mode())
}

func TestRemoteReasonerRequestShapeAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		assert.Equal(t, 60, req.MaxTokens)
		assert.InDelta(t, 0.3, req.Temperature, 1e-9)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, systemPrompt, req.Messages[0].Content)
			assert.Contains(t, req.Messages[1].Content, "AS AC")
			assert.Contains(t, req.Messages[1].Content, "Recommended Action: Raise")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Value raise against a station.  "}}]}`))
	}))
	defer srv.Close()

	mc := cache.NewMemoryCache()
	defer mc.Close()
	m := &recordingMetrics{}
	r := NewReasoner(testConfig(t, srv.URL), mc, m, nil)
	assert.Equal(t, ModeRemote, r.Mode())

	exp := r.Explain(context.Background(), raiseContext())
	assert.Equal(t, models.Explanation{Text: "Value raise against a station.", Source: models.ReasoningRemote}, exp)

	exp = r.Explain(context.Background(), raiseContext())
	assert.Equal(t, models.Explanation{Text: "Value raise against a station.", Source: models.ReasoningCache}, exp)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, []models.ReasoningSource{models.ReasoningRemote, models.ReasoningCache}, m.sources)
	assert.Empty(t, m.fallbacks)
}

func TestRemoteFailuresFallBackToTemplate(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}, "status"},
		{"provider rate limit", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		}, "rate_limited"},
		{"no choices", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}, "empty"},
		{"blank content", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
		}, "empty"},
		{"malformed json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":`))
		}, "error"},
		{"slow provider", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}, "timeout"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			cfg := testConfig(t, srv.URL)
			cfg.Reasoning.Timeout = 100 * time.Millisecond
			m := &recordingMetrics{}
			mc := cache.NewMemoryCache()
			defer mc.Close()
			r := NewReasoner(cfg, mc, m, nil)

			start := time.Now()
			exp := r.Explain(context.Background(), raiseContext())
			assert.Less(t, time.Since(start), time.Second)

			assert.Equal(t, models.ReasoningTemplate, exp.Source)
			assert.Equal(t, templateText(models.ActionRaise, models.LabelLoosePassive), exp.Text)
			assert.Equal(t, []string{tc.reason}, m.fallbacks)
			assert.Equal(t, 0, mc.Len(), "fallback text must not be cached")
		})
	}
}

func TestFallbackBoundsGeneratorIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	gen := stubGenerator(func(context.Context, models.ReasoningContext) (string, error) {
		<-release
		return "too late", nil
	})
	m := &recordingMetrics{}
	r := NewFallbackReasoner(gen, 50*time.Millisecond, WithMetrics(m))

	start := time.Now()
	exp := r.Explain(context.Background(), raiseContext())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, models.ReasoningTemplate, exp.Source)
	assert.Equal(t, []string{"timeout"}, m.fallbacks)
}

func TestFallbackOnGeneratorError(t *testing.T) {
	gen := stubGenerator(func(context.Context, models.ReasoningContext) (string, error) {
		return "", errors.New("quota exceeded")
	})
	m := &recordingMetrics{}
	r := NewFallbackReasoner(gen, time.Second, WithMetrics(m))

	for _, a := range models.Actions() {
		for _, l := range models.Labels() {
			rc := models.ReasoningContext{Action: a, Label: l}
			exp := r.Explain(context.Background(), rc)
			assert.Equal(t, templateText(a, l), exp.Text)
			assert.NotEmpty(t, exp.Text)
		}
	}
	assert.Len(t, m.fallbacks, len(models.Actions())*len(models.Labels()))
}

func TestCacheKeyDependsOnContext(t *testing.T) {
	a := raiseContext()
	b := raiseContext()
	b.PotSize = 11
	assert.Equal(t, cacheKey(a), cacheKey(raiseContext()))
	assert.NotEqual(t, cacheKey(a), cacheKey(b))
}
