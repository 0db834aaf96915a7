package policy

import (
	"testing"

	"PokerAssist/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideEmptyHoleCardsFolds(t *testing.T) {
	p := NewBaseline()
	boards := [][]string{nil, {}, {"2h", "7c", "Jd"}, {"2h", "7c", "Jd", "Qs", "Ac"}}
	pots := []float64{0, 1.5, 250}
	for _, label := range models.Labels() {
		for _, board := range boards {
			for _, pot := range pots {
				d := p.Decide(models.HandSnapshot{CommunityCards: board, PotSize: pot}, label)
				assert.Equal(t, models.ActionFold, d.Action)
				assert.Equal(t, -0.5, d.EV)
				assert.Equal(t, 0.99, d.Confidence)
				assert.Nil(t, d.RaiseSize)
			}
		}
	}
}

func TestDecidePocketPairAgainstCallingStation(t *testing.T) {
	d := NewBaseline().Decide(models.HandSnapshot{HoleCards: []string{"AS", "AC"}, PotSize: 10}, models.LabelLoosePassive)

	assert.Equal(t, models.ActionRaise, d.Action)
	require.NotNil(t, d.RaiseSize)
	assert.InDelta(t, 11.25, *d.RaiseSize, 1e-9)
	assert.InDelta(t, 6.5, d.EV, 1e-9)
	assert.Equal(t, 0.85, d.Confidence)
}

func TestDecidePocketPairAgainstNitWithEmptyPot(t *testing.T) {
	d := NewBaseline().Decide(models.HandSnapshot{HoleCards: []string{"AS", "AC"}}, models.LabelTightPassive)

	assert.Equal(t, models.ActionRaise, d.Action)
	require.NotNil(t, d.RaiseSize)
	assert.InDelta(t, 3.0, *d.RaiseSize, 1e-9)
	assert.InDelta(t, 3.5, d.EV, 1e-9)
	assert.Equal(t, 0.85, d.Confidence)
}

func TestDecidePocketPairOtherLabelsUnadjusted(t *testing.T) {
	for _, label := range []models.Label{models.LabelUnknown, models.LabelLooseAggressive, models.LabelTightAggressive} {
		d := NewBaseline().Decide(models.HandSnapshot{HoleCards: []string{"7d", "7h"}, PotSize: 20}, label)
		require.NotNil(t, d.RaiseSize)
		assert.InDelta(t, 15.0, *d.RaiseSize, 1e-9, label)
		assert.InDelta(t, 4.5, d.EV, 1e-9, label)
	}
}

func TestDecideUnpairedCalls(t *testing.T) {
	for _, label := range models.Labels() {
		d := NewBaseline().Decide(models.HandSnapshot{HoleCards: []string{"AS", "KD"}, PotSize: 12}, label)
		assert.Equal(t, models.ActionCall, d.Action)
		assert.Equal(t, 0.1, d.EV)
		assert.Equal(t, 0.6, d.Confidence)
		assert.Nil(t, d.RaiseSize)
	}
}

func TestDecideMalformedCardsAreNotPairs(t *testing.T) {
	hands := [][]string{
		{"??", "??"},
		{"A", "A"},
		{"AS"},
		{"AS", "AC", "AD"},
		{"Xs", "Xs"},
		{"1s", "1h"},
		{"", ""},
	}
	for _, hole := range hands {
		d := NewBaseline().Decide(models.HandSnapshot{HoleCards: hole}, models.LabelUnknown)
		assert.Equal(t, models.ActionCall, d.Action, "%v", hole)
	}
}

func TestRankOf(t *testing.T) {
	cases := map[string]byte{"As": 14, "kd": 13, "Qh": 12, "JC": 11, "Ts": 10, "10h": 10, "9c": 9, "2d": 2}
	for code, want := range cases {
		got, ok := rankOf(code)
		assert.True(t, ok, code)
		assert.Equal(t, want, got, code)
	}
	assert.True(t, isPocketPair([]string{"Td", "10s"}))
}
