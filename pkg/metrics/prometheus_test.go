package metrics

import (
	"testing"

	"PokerAssist/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordAdvisory(models.ActionRaise, models.LabelLoosePassive)
	r.RecordAdvisory(models.ActionRaise, models.LabelLoosePassive)
	r.RecordFallback("timeout")
	r.RecordTrackedOpponents(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.advisories.WithLabelValues("Raise", string(models.LabelLoosePassive))))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("timeout")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.trackedOpponent))
}

func TestRecordersOnSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithRegisterer(prometheus.NewRegistry())
		NewWithRegisterer(prometheus.NewRegistry())
	})
}
