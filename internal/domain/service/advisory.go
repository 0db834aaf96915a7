package service

import (
	"context"

	"PokerAssist/internal/domain/models"
)

// DecisionPolicy maps a hand and the opponent's label to a tentative action.
// Implementations must be pure and total.
type DecisionPolicy interface {
	Decide(snapshot models.HandSnapshot, label models.Label) models.Decision
}

// Reasoner attaches a short justification to an already chosen action.
// Explain never fails and never returns empty text; degraded modes are handled inside.
type Reasoner interface {
	Explain(ctx context.Context, rc models.ReasoningContext) models.Explanation
	Mode() string
}
