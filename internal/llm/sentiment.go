package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/murmur/pkg/murmur/sentiment"
)

const classifyPrompt = `You label the sentiment of chat messages about baby products.
For every numbered message return one object {"label": "positive"|"neutral"|"negative", "score": confidence between 0 and 1}.
Reply with a JSON array only, one object per message, in message order.`

// Classifier labels sentiment with a chat model.
type Classifier struct {
	Client *Client
}

type labelReply struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify returns one prediction per text. Results are not validated here;
// callers check the label set and confidence range.
func (c Classifier) Classify(ctx context.Context, texts []string) ([]sentiment.Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var replies []labelReply
	if err := c.Client.ChatJSON(ctx, classifyPrompt, numbered(texts), &replies); err != nil {
		return nil, err
	}
	if len(replies) != len(texts) {
		return nil, fmt.Errorf("llm: %d labels for %d texts", len(replies), len(texts))
	}
	out := make([]sentiment.Prediction, len(replies))
	for i, r := range replies {
		out[i] = sentiment.Prediction{
			Label:      sentiment.Label(strings.ToLower(strings.TrimSpace(r.Label))),
			Confidence: r.Score,
		}
	}
	return out, nil
}
