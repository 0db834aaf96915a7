package models

// Requests for the advisory HTTP endpoints. Defined in domain for consistency and reuse.

type SolveRequest struct {
	OpponentID     string   `json:"opponentId" validate:"max=128"`
	HoleCards      []string `json:"holeCards" validate:"oneoflen=0 2,dive,min=2,max=3"`
	CommunityCards []string `json:"communityCards" validate:"max=5,dive,min=2,max=3"`
	NumPlayers     int      `json:"numPlayers" validate:"gte=0,lte=10"`
	DealerPosition int      `json:"dealerPosition" validate:"gte=0"`
	MyPosition     int      `json:"myPosition" validate:"gte=0"`
	ActiveAction   string   `json:"activeAction"`
	PotSize        float64  `json:"potSize" validate:"gte=0"`
}

// Snapshot converts the request body into the domain snapshot.
func (r *SolveRequest) Snapshot() HandSnapshot {
	return HandSnapshot{
		HoleCards:      r.HoleCards,
		CommunityCards: r.CommunityCards,
		PotSize:        r.PotSize,
		NumPlayers:     r.NumPlayers,
		DealerPosition: r.DealerPosition,
		MyPosition:     r.MyPosition,
		ActiveAction:   r.ActiveAction,
	}
}

type ObservationRequest struct {
	OpponentID         string `param:"id" json:"-" validate:"required,max=128"`
	PlayedHand         bool   `json:"playedHand"`
	VoluntarilyEntered bool   `json:"voluntarilyEntered"`
	PreflopRaise       bool   `json:"preflopRaise"`
}

func (r *ObservationRequest) Observation() Observation {
	return Observation{
		OpponentID:         r.OpponentID,
		PlayedHand:         r.PlayedHand,
		VoluntarilyEntered: r.VoluntarilyEntered,
		PreflopRaise:       r.PreflopRaise,
	}
}

type ProfileRequest struct {
	OpponentID string `param:"id" validate:"required,max=128"`
}

type HistoryRequest struct {
	OpponentID string `query:"opponentId" json:"opponentId"`
	From       string `query:"from" json:"from"`
	To         string `query:"to" json:"to"`
	Limit      int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}
