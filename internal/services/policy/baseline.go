package policy

import (
	"PokerAssist/internal/domain/models"
	domsvc "PokerAssist/internal/domain/service"
)

// Placeholder policy values. They stand in for an external solver and are part
// of the observable contract.
const (
	foldEV         = -0.5
	foldConfidence = 0.99

	raisePotFraction = 0.75
	raiseMinimumBB   = 3.0
	raiseEV          = 4.5
	raiseConfidence  = 0.85

	callEV         = 0.1
	callConfidence = 0.6

	nitEVPenalty        = 1.0
	stationSizingFactor = 1.5
	stationEVBonus      = 2.0
)

// Baseline is the built-in decision policy.
type Baseline struct{}

func NewBaseline() *Baseline { return &Baseline{} }

// Decide never fails: unknown card shapes simply are not pocket pairs.
func (Baseline) Decide(snapshot models.HandSnapshot, label models.Label) models.Decision {
	if len(snapshot.HoleCards) == 0 {
		return models.Decision{Action: models.ActionFold, EV: foldEV, Confidence: foldConfidence}
	}

	if !isPocketPair(snapshot.HoleCards) {
		return models.Decision{Action: models.ActionCall, EV: callEV, Confidence: callConfidence}
	}

	sizing := raiseMinimumBB
	if snapshot.PotSize > 0 {
		sizing = snapshot.PotSize * raisePotFraction
	}
	ev := raiseEV
	switch label {
	case models.LabelTightPassive:
		ev -= nitEVPenalty
	case models.LabelLoosePassive:
		sizing *= stationSizingFactor
		ev += stationEVBonus
	}
	return models.Decision{Action: models.ActionRaise, RaiseSize: &sizing, EV: ev, Confidence: raiseConfidence}
}

var _ domsvc.DecisionPolicy = Baseline{}
