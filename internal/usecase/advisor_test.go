package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"PokerAssist/internal/domain/models"
	"PokerAssist/internal/repository"
	"PokerAssist/internal/services/policy"
	"PokerAssist/internal/services/reasoning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureReasoner struct {
	mu   sync.Mutex
	seen []models.ReasoningContext
}

func (r *captureReasoner) Explain(_ context.Context, rc models.ReasoningContext) models.Explanation {
	r.mu.Lock()
	r.seen = append(r.seen, rc)
	r.mu.Unlock()
	return models.Explanation{Text: "because " + string(rc.Action), Source: models.ReasoningRemote}
}

func (r *captureReasoner) Mode() string { return reasoning.ModeRemote }

type sinkStub struct {
	accept bool
	recs   []*models.HandRecord
}

func (s *sinkStub) Submit(rec *models.HandRecord) bool {
	s.recs = append(s.recs, rec)
	return s.accept
}

func seededStore(t *testing.T, id string, hands, vol, pfr int) *repository.MemoryProfileStore {
	t.Helper()
	s := repository.NewMemoryProfileStore(4)
	for i := 0; i < hands; i++ {
		s.Update(id, true, i < vol, i < pfr)
	}
	return s
}

func TestAdviseUsesProfileAndDoesNotMutateStore(t *testing.T) {
	store := seededStore(t, "station", 20, 12, 1)
	before := store.Get("station")
	r := &captureReasoner{}
	a := NewAdvisor(store, policy.NewBaseline(), r)

	rec := a.Advise(context.Background(), "station", models.HandSnapshot{HoleCards: []string{"AS", "AC"}, PotSize: 10})

	assert.Equal(t, models.ActionRaise, rec.Action)
	require.NotNil(t, rec.RaiseSize)
	assert.InDelta(t, 11.25, *rec.RaiseSize, 1e-9)
	require.NotNil(t, rec.EV)
	require.NotNil(t, rec.Confidence)
	assert.Equal(t, "because Raise", rec.Reasoning)

	assert.Equal(t, before, store.Get("station"))
	assert.Equal(t, 1, store.Len())

	require.Len(t, r.seen, 1)
	assert.Equal(t, models.LabelLoosePassive, r.seen[0].Label)
	assert.InDelta(t, 60.0, r.seen[0].VPIP, 1e-9)
	assert.InDelta(t, 5.0, r.seen[0].PFR, 1e-9)
}

func TestAdviseUnknownOpponentCreatesNothing(t *testing.T) {
	store := repository.NewMemoryProfileStore(4)
	a := NewAdvisor(store, policy.NewBaseline(), reasoning.NewTemplateReasoner())

	rec := a.Advise(context.Background(), "", models.HandSnapshot{HoleCards: []string{"AS", "KD"}})
	assert.Equal(t, models.ActionCall, rec.Action)
	assert.Equal(t, 0, store.Len())
}

func TestAdviseExplainsForcedFold(t *testing.T) {
	r := &captureReasoner{}
	a := NewAdvisor(repository.NewMemoryProfileStore(4), policy.NewBaseline(), r)

	rec := a.Advise(context.Background(), "x", models.HandSnapshot{})
	assert.Equal(t, models.ActionFold, rec.Action)
	assert.Nil(t, rec.RaiseSize)
	require.NotNil(t, rec.EV)
	assert.Equal(t, -0.5, *rec.EV)
	assert.Equal(t, "because Fold", rec.Reasoning)
	assert.Len(t, r.seen, 1)
}

func TestAdviseSubmitsHistoryRecord(t *testing.T) {
	sink := &sinkStub{accept: true}
	store := seededStore(t, "nit", 20, 2, 0)
	a := NewAdvisor(store, policy.NewBaseline(), &captureReasoner{}, WithHistorySink(sink))
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	hole := []string{"Qh", "Qd"}
	rec := a.Advise(context.Background(), "nit", models.HandSnapshot{
		HoleCards: hole, CommunityCards: []string{"2c", "7d", "Ks"}, PotSize: 8, NumPlayers: 6, MyPosition: 2,
	})
	hole[0] = "mutated"

	require.Len(t, sink.recs, 1)
	hr := sink.recs[0]
	assert.NotEmpty(t, hr.ID)
	assert.Equal(t, fixed, hr.Timestamp)
	assert.Equal(t, "nit", hr.OpponentID)
	assert.Equal(t, models.LabelTightPassive, hr.OpponentLabel)
	assert.Equal(t, []string{"Qh", "Qd"}, hr.HoleCards, "record keeps its own copy")
	assert.Equal(t, rec.Action, hr.Action)
	assert.Equal(t, models.ReasoningRemote, hr.ReasoningSource)
	assert.Equal(t, 6, hr.NumPlayers)
}

func TestAdviseIgnoresDroppedHistory(t *testing.T) {
	sink := &sinkStub{accept: false}
	a := NewAdvisor(repository.NewMemoryProfileStore(4), policy.NewBaseline(), reasoning.NewTemplateReasoner(), WithHistorySink(sink))

	rec := a.Advise(context.Background(), "v", models.HandSnapshot{HoleCards: []string{"9s", "9h"}, PotSize: 4})
	assert.Equal(t, models.ActionRaise, rec.Action)
	assert.Len(t, sink.recs, 1)
}
