package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"PokerAssist/internal/domain/models"
	"PokerAssist/pkg/config"
)

const systemPrompt = "You are a professional poker player analyzing a hand."

// ErrEmptyCompletion is returned when the provider answers without usable text.
var ErrEmptyCompletion = errors.New("reasoning: empty completion")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// RemoteReasoner asks an OpenAI-compatible chat completions endpoint for a short explanation.
type RemoteReasoner struct {
	*HTTPServiceBase
	model       string
	maxTokens   int
	temperature float64
}

func NewRemoteReasoner(cfg *config.Config) *RemoteReasoner {
	rc := cfg.Reasoning
	return &RemoteReasoner{
		HTTPServiceBase: NewHTTPServiceBase(rc.BaseURL, rc.APIKey, 2*rc.Timeout),
		model:           rc.Model,
		maxTokens:       rc.MaxTokens,
		temperature:     rc.Temperature,
	}
}

// Generate performs one completion call and returns the trimmed text.
func (r *RemoteReasoner) Generate(ctx context.Context, rc models.ReasoningContext) (string, error) {
	req := chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(rc)},
		},
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	}

	var resp chatResponse
	if err := r.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func buildPrompt(rc models.ReasoningContext) string {
	var b strings.Builder
	b.WriteString("You are an expert poker coach. Explain the mathematical and strategic reasoning ")
	b.WriteString("behind the following recommended action. Be concise, using no more than 2 sentences.\n\n")
	b.WriteString("Current State:\n")
	fmt.Fprintf(&b, "- My Hole Cards: %s\n", formatCards(rc.HoleCards))
	fmt.Fprintf(&b, "- Community Cards: %s\n", formatCards(rc.CommunityCards))
	fmt.Fprintf(&b, "- Pot Size: $%.2f\n", rc.PotSize)
	fmt.Fprintf(&b, "- Active Opponent Profile: %s (VPIP: %.1f%%, PFR: %.1f%%)\n", rc.Label.Description(), rc.VPIP, rc.PFR)
	fmt.Fprintf(&b, "\nRecommended Action: %s\n\nExplanation:", rc.Action)
	return b.String()
}

func formatCards(cards []string) string {
	if len(cards) == 0 {
		return "none"
	}
	return strings.Join(cards, " ")
}
