// Package provider classifies sentiment through the OpenAI Responses API
// with a strict JSON-schema output format.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/cognicore/murmur/pkg/murmur/sentiment"
)

const DefaultModel = "gpt-4o-mini"

const classifierInstructions = `You label the sentiment of chat messages from parenting groups about baby products.
Each input line is "<index>: <message>". Return one entry per message with the same index,
a label of positive, neutral or negative, and a confidence score between 0 and 1.`

// Responder is the part of the Responses API the classifier needs.
type Responder interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

// Classifier implements sentiment.Classifier over the Responses API.
type Classifier struct {
	Responses Responder
	Model     string
	// Backoff lists the waits between attempts after rate-limit or server
	// errors. Its length bounds the retries.
	Backoff []time.Duration
}

// NewClassifier creates a classifier using apiKey.
func NewClassifier(apiKey, model string, opts ...option.RequestOption) *Classifier {
	if model == "" {
		model = DefaultModel
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Classifier{
		Responses: &client.Responses,
		Model:     model,
		Backoff:   []time.Duration{5 * time.Second, 30 * time.Second},
	}
}

type labelSet struct {
	Labels []labelItem `json:"labels" jsonschema:"required"`
}

type labelItem struct {
	Index int     `json:"index" jsonschema:"required"`
	Label string  `json:"label" jsonschema:"required,enum=positive,enum=neutral,enum=negative"`
	Score float64 `json:"score" jsonschema:"required"`
}

var labelSchema = GenerateSchema[labelSet]()

// Classify labels texts in one request.
func (c *Classifier) Classify(ctx context.Context, texts []string) ([]sentiment.Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.Responses == nil {
		return nil, errors.New("provider: responses client is nil")
	}

	params := responses.ResponseNewParams{
		Model:        c.Model,
		Instructions: openai.String(classifierInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(buildInput(texts), responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "SentimentLabels",
					Schema:      labelSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Sentiment label per message"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}
	var out labelSet
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, fmt.Errorf("provider: unmarshal labels: %w", err)
	}
	return toPredictions(out, len(texts))
}

func buildInput(texts []string) string {
	var sb strings.Builder
	for i, t := range texts {
		fmt.Fprintf(&sb, "%d: %s\n", i, strings.ReplaceAll(t, "\n", " "))
	}
	return sb.String()
}

// toPredictions places labels by index and fails on gaps or duplicates.
func toPredictions(set labelSet, n int) ([]sentiment.Prediction, error) {
	out := make([]sentiment.Prediction, n)
	seen := make([]bool, n)
	for _, it := range set.Labels {
		if it.Index < 0 || it.Index >= n {
			return nil, fmt.Errorf("provider: label index %d out of range for %d texts", it.Index, n)
		}
		if seen[it.Index] {
			return nil, fmt.Errorf("provider: duplicate label for index %d", it.Index)
		}
		seen[it.Index] = true
		out[it.Index] = sentiment.Prediction{Label: sentiment.Label(it.Label), Confidence: it.Score}
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("provider: missing label for index %d", i)
		}
	}
	return out, nil
}

func (c *Classifier) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		if attempt >= len(c.Backoff) || !(isRateLimitError(err) || isServerError(err)) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Backoff[attempt]):
		}
	}
}

func isRateLimitError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}
