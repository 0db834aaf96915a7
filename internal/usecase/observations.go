package usecase

import (
	"context"
	"errors"
	"strings"

	"PokerAssist/internal/domain/models"
	domrepo "PokerAssist/internal/domain/repository"
	"PokerAssist/pkg/metrics"
)

var (
	ErrEmptyOpponentID    = errors.New("opponent id is empty")
	ErrInvalidObservation = errors.New("invalid observation")
)

// ObservationSourceHTTP labels observations posted to the REST API.
const ObservationSourceHTTP = "http"

// ObservationRecorder applies completed-hand observations to the profile store.
type ObservationRecorder struct {
	profiles domrepo.ProfileStore
	metrics  domrepo.Metrics
}

func NewObservationRecorder(profiles domrepo.ProfileStore, m domrepo.Metrics) *ObservationRecorder {
	if m == nil {
		m = metrics.Nop{}
	}
	return &ObservationRecorder{profiles: profiles, metrics: m}
}

// Record applies o and returns the opponent's profile as it stands right after the update.
// Concurrent updates for the same opponent may already be reflected in the returned counters.
func (r *ObservationRecorder) Record(_ context.Context, source string, o models.Observation) (models.ProfileView, error) {
	id := strings.TrimSpace(o.OpponentID)
	if id == "" {
		r.metrics.RecordError("observation_invalid")
		return models.ProfileView{}, ErrEmptyOpponentID
	}
	r.profiles.Update(id, o.PlayedHand, o.VoluntarilyEntered, o.PreflopRaise)
	r.metrics.RecordObservation(source)
	r.metrics.RecordTrackedOpponents(r.profiles.Len())
	return models.NewProfileView(id, r.profiles.Get(id)), nil
}

// Profile returns the read model for id; unknown opponents yield a zero profile.
func (r *ObservationRecorder) Profile(id string) models.ProfileView {
	return models.NewProfileView(id, r.profiles.Get(id))
}

// Tracked returns the number of opponents with recorded observations.
func (r *ObservationRecorder) Tracked() int {
	return r.profiles.Len()
}
