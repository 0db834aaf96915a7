package usecase

import (
	"context"
	"time"

	"PokerAssist/internal/domain/models"
	domrepo "PokerAssist/internal/domain/repository"
	domsvc "PokerAssist/internal/domain/service"
	"PokerAssist/pkg/logger"
	"PokerAssist/pkg/metrics"

	"github.com/google/uuid"
)

// Advisor turns a table snapshot into a recommendation for the given opponent.
// It reads the profile exactly once and never writes to the store.
type Advisor struct {
	profiles domrepo.ProfileStore
	policy   domsvc.DecisionPolicy
	reasoner domsvc.Reasoner
	history  domrepo.HistorySink
	metrics  domrepo.Metrics
	log      *logger.Logger
	now      func() time.Time
}

type AdvisorOption func(*Advisor)

// WithHistorySink records every recommendation on a best-effort basis.
func WithHistorySink(s domrepo.HistorySink) AdvisorOption {
	return func(a *Advisor) { a.history = s }
}

func WithAdvisorMetrics(m domrepo.Metrics) AdvisorOption {
	return func(a *Advisor) {
		if m != nil {
			a.metrics = m
		}
	}
}

func WithAdvisorLogger(l *logger.Logger) AdvisorOption {
	return func(a *Advisor) {
		if l != nil {
			a.log = l
		}
	}
}

func NewAdvisor(profiles domrepo.ProfileStore, policy domsvc.DecisionPolicy, reasoner domsvc.Reasoner, opts ...AdvisorOption) *Advisor {
	a := &Advisor{
		profiles: profiles,
		policy:   policy,
		reasoner: reasoner,
		metrics:  metrics.Nop{},
		log:      logger.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Advise always produces a complete recommendation; enrichment degrades internally.
func (a *Advisor) Advise(ctx context.Context, opponentID string, snap models.HandSnapshot) models.Recommendation {
	start := time.Now()

	profile := a.profiles.Get(opponentID)
	label := models.Classify(profile)
	decision := a.policy.Decide(snap, label)

	exp := a.reasoner.Explain(ctx, models.ReasoningContext{
		HoleCards:      snap.HoleCards,
		CommunityCards: snap.CommunityCards,
		PotSize:        snap.PotSize,
		Label:          label,
		VPIP:           profile.VPIP(),
		PFR:            profile.PFR(),
		Action:         decision.Action,
	})

	ev, confidence := decision.EV, decision.Confidence
	rec := models.Recommendation{
		Action:     decision.Action,
		RaiseSize:  decision.RaiseSize,
		EV:         &ev,
		Confidence: &confidence,
		Reasoning:  exp.Text,
	}

	a.metrics.RecordAdvisory(rec.Action, label)
	a.metrics.RecordLatency("advise", time.Since(start).Seconds())
	a.record(opponentID, label, snap, rec, exp.Source)
	return rec
}

func (a *Advisor) record(opponentID string, label models.Label, snap models.HandSnapshot, rec models.Recommendation, source models.ReasoningSource) {
	if a.history == nil {
		return
	}
	hr := &models.HandRecord{
		ID:              uuid.NewString(),
		Timestamp:       a.now().UTC(),
		OpponentID:      opponentID,
		OpponentLabel:   label,
		HoleCards:       append([]string(nil), snap.HoleCards...),
		CommunityCards:  append([]string(nil), snap.CommunityCards...),
		NumPlayers:      snap.NumPlayers,
		MyPosition:      snap.MyPosition,
		PotSize:         snap.PotSize,
		Action:          rec.Action,
		RaiseSize:       rec.RaiseSize,
		EV:              rec.EV,
		Confidence:      rec.Confidence,
		Reasoning:       rec.Reasoning,
		ReasoningSource: source,
	}
	if !a.history.Submit(hr) {
		a.metrics.RecordError("history_dropped")
		a.log.Debug("hand history dropped", logger.String("opponent_id", opponentID))
	}
}
