package models

// Label classifies an opponent's preflop tendencies.
type Label string

const (
	LabelUnknown         Label = "Unknown"
	LabelLooseAggressive Label = "LooseAggressive"
	LabelLoosePassive    Label = "LoosePassive"
	LabelTightAggressive Label = "TightAggressive"
	LabelTightPassive    Label = "TightPassive"
)

// MinSampleHands is the number of observed hands below which an opponent stays Unknown.
const MinSampleHands = 10

// Labels lists every label in classification order.
func Labels() []Label {
	return []Label{LabelUnknown, LabelLooseAggressive, LabelLoosePassive, LabelTightAggressive, LabelTightPassive}
}

// Description returns the long form shown to players.
func (l Label) Description() string {
	switch l {
	case LabelLooseAggressive:
		return "Loose Aggressive (LAG)"
	case LabelLoosePassive:
		return "Loose Passive (Calling Station)"
	case LabelTightAggressive:
		return "Tight Aggressive (TAG)"
	case LabelTightPassive:
		return "Tight Passive (Nit)"
	default:
		return "Unknown (need more data)"
	}
}

func (l Label) IsLoose() bool {
	return l == LabelLooseAggressive || l == LabelLoosePassive
}

func (l Label) IsAggressive() bool {
	return l == LabelLooseAggressive || l == LabelTightAggressive
}

// OpponentProfile holds the raw behavioral counters for one opponent.
// Derived statistics are always recomputed from the counters.
type OpponentProfile struct {
	HandsPlayed        int64
	VoluntarilyEntered int64
	PreflopRaises      int64
}

// VPIP is the percentage of hands the opponent voluntarily put money in preflop.
func (p OpponentProfile) VPIP() float64 { return percent(p.VoluntarilyEntered, p.HandsPlayed) }

// PFR is the percentage of hands the opponent raised preflop.
func (p OpponentProfile) PFR() float64 { return percent(p.PreflopRaises, p.HandsPlayed) }

// percent scales before dividing so whole percentages stay exact at the thresholds.
func percent(n, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n*100) / float64(total)
}

func (p OpponentProfile) Label() Label { return Classify(p) }

// Classify maps counters to a label. First match wins; inputs that fall between
// the thresholds (vpip in (20,30], or vpip > 30 with pfr in (10,20]) end up TightPassive.
func Classify(p OpponentProfile) Label {
	if p.HandsPlayed < MinSampleHands {
		return LabelUnknown
	}
	vpip, pfr := p.VPIP(), p.PFR()
	switch {
	case vpip > 30 && pfr > 20:
		return LabelLooseAggressive
	case vpip > 30 && pfr <= 10:
		return LabelLoosePassive
	case vpip <= 20 && pfr >= 15:
		return LabelTightAggressive
	default:
		return LabelTightPassive
	}
}

// Observation is one completed hand for an opponent, as reported by the table reader.
type Observation struct {
	OpponentID         string `json:"opponentId" validate:"required,max=128"`
	PlayedHand         bool   `json:"playedHand"`
	VoluntarilyEntered bool   `json:"voluntarilyEntered"`
	PreflopRaise       bool   `json:"preflopRaise"`
}

// ProfileView is the read model returned to clients.
type ProfileView struct {
	OpponentID         string  `json:"opponentId"`
	HandsPlayed        int64   `json:"handsPlayed"`
	VoluntarilyEntered int64   `json:"voluntarilyEntered"`
	PreflopRaises      int64   `json:"preflopRaises"`
	VPIP               float64 `json:"vpip"`
	PFR                float64 `json:"pfr"`
	Label              Label   `json:"label"`
	Description        string  `json:"description"`
}

// NewProfileView builds the read model for id.
func NewProfileView(id string, p OpponentProfile) ProfileView {
	label := p.Label()
	return ProfileView{
		OpponentID:         id,
		HandsPlayed:        p.HandsPlayed,
		VoluntarilyEntered: p.VoluntarilyEntered,
		PreflopRaises:      p.PreflopRaises,
		VPIP:               p.VPIP(),
		PFR:                p.PFR(),
		Label:              label,
		Description:        label.Description(),
	}
}
