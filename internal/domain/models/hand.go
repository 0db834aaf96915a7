package models

import "time"

// Action is the recommended move.
type Action string

const (
	ActionFold  Action = "Fold"
	ActionCall  Action = "Call"
	ActionRaise Action = "Raise"
)

// Actions lists every action the baseline policy can produce.
func Actions() []Action { return []Action{ActionFold, ActionCall, ActionRaise} }

// HandSnapshot is the table state captured for a single advisory request.
// Positional fields are carried through for history but not used by the policy.
type HandSnapshot struct {
	HoleCards      []string
	CommunityCards []string
	PotSize        float64
	NumPlayers     int
	DealerPosition int
	MyPosition     int
	ActiveAction   string
}

// Decision is the baseline policy output before enrichment.
type Decision struct {
	Action     Action
	RaiseSize  *float64
	EV         float64
	Confidence float64
}

// Recommendation is returned whole to the caller; the json names match the
// suggestion payload mobile clients already decode.
type Recommendation struct {
	Action     Action   `json:"action"`
	RaiseSize  *float64 `json:"raiseSize,omitempty"`
	EV         *float64 `json:"ev,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// ReasoningSource tells where an explanation came from.
type ReasoningSource string

const (
	ReasoningRemote   ReasoningSource = "remote"
	ReasoningTemplate ReasoningSource = "template"
	ReasoningCache    ReasoningSource = "cache"
)

// Explanation is the enrichment output.
type Explanation struct {
	Text   string
	Source ReasoningSource
}

// ReasoningContext is everything the enrichment step may talk about.
type ReasoningContext struct {
	HoleCards      []string
	CommunityCards []string
	PotSize        float64
	Label          Label
	VPIP           float64
	PFR            float64
	Action         Action
}

// HandRecord is one advised hand kept for later review.
type HandRecord struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	OpponentID      string          `json:"opponentId"`
	OpponentLabel   Label           `json:"opponentLabel"`
	HoleCards       []string        `json:"holeCards"`
	CommunityCards  []string        `json:"communityCards"`
	NumPlayers      int             `json:"numPlayers"`
	MyPosition      int             `json:"myPosition"`
	PotSize         float64         `json:"potSize"`
	Action          Action          `json:"recommendedAction"`
	RaiseSize       *float64        `json:"recommendedRaiseSize,omitempty"`
	EV              *float64        `json:"ev,omitempty"`
	Confidence      *float64        `json:"confidence,omitempty"`
	Reasoning       string          `json:"reasoning"`
	ReasoningSource ReasoningSource `json:"reasoningSource"`
}
