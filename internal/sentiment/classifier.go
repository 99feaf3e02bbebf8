package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pagelens/pagelens/internal/llm"
)

const classifierPrompt = `Classify the sentiment of the following text as POSITIVE or NEGATIVE and rate your confidence from 0 to 1. Respond with JSON only, in the form {"label": "POSITIVE", "score": 0.98}.

Text:
%s`

// LLMClassifier classifies sentiment with a single chat completion per text.
type LLMClassifier struct {
	client llm.Client
}

// NewLLMClassifier creates a classifier over the given chat client.
func NewLLMClassifier(client llm.Client) *LLMClassifier {
	return &LLMClassifier{client: client}
}

// Classify asks the model for a label and confidence. Malformed or
// unexpected replies fall back to neutral rather than failing the
// whole page analysis.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	reply, err := c.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a sentiment classifier. Respond with JSON only."},
		{Role: llm.RoleUser, Content: fmt.Sprintf(classifierPrompt, text)},
	})
	if err != nil {
		return Classification{}, err
	}

	var out Classification
	if err := json.Unmarshal([]byte(extractJSON(reply)), &out); err != nil {
		return Classification{Label: LabelNeutral, Score: 0.5}, nil
	}
	out.Label = strings.ToUpper(strings.TrimSpace(out.Label))
	if out.Label != LabelPositive && out.Label != LabelNegative {
		out.Label = LabelNeutral
	}
	if out.Score < 0 || out.Score > 1 {
		out.Score = 0.5
	}
	return out, nil
}

// extractJSON pulls the first {...} object out of a reply that may be
// wrapped in prose or code fences.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

// StaticClassifier returns canned classifications keyed by substring,
// for tests. Texts matching no rule are neutral.
type StaticClassifier struct {
	Rules map[string]Classification
}

// Classify returns the first rule whose key appears in text.
func (c *StaticClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	for substr, cls := range c.Rules {
		if strings.Contains(text, substr) {
			return cls, nil
		}
	}
	return Classification{Label: LabelNeutral, Score: 0.5}, nil
}
