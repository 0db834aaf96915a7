package reasoning

import (
	"context"
	"fmt"

	"PokerAssist/internal/domain/models"
	domsvc "PokerAssist/internal/domain/service"
)

const (
	ModeTemplate = "template"
	ModeRemote   = "remote"
)

// TemplateReasoner explains an action with a fixed sentence chosen by (action, label).
type TemplateReasoner struct{}

func NewTemplateReasoner() *TemplateReasoner {
	return &TemplateReasoner{}
}

func (t *TemplateReasoner) Explain(_ context.Context, rc models.ReasoningContext) models.Explanation {
	return models.Explanation{Text: templateText(rc.Action, rc.Label), Source: models.ReasoningTemplate}
}

func (t *TemplateReasoner) Mode() string { return ModeTemplate }

func templateText(action models.Action, label models.Label) string {
	switch action {
	case models.ActionRaise:
		if label.IsLoose() {
			return fmt.Sprintf("Opponent is a %s. Isolate them for value with your strong equity.", label.Description())
		}
		return "You have the range advantage here. A raise applies maximum fold equity."
	case models.ActionCall:
		if label.IsAggressive() {
			return fmt.Sprintf("Opponent is %s. Keep their bluffs in the pot with a call.", label.Description())
		}
		return "You have pot odds to draw, but not enough equity to inflate the pot."
	default:
		return "Your equity is too low against the opponent's range to continue."
	}
}

var _ domsvc.Reasoner = (*TemplateReasoner)(nil)
