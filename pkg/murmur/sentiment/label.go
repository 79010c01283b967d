// Package sentiment classifies chat texts through a persistent cache, an
// external classifier and an ordered set of override rules.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cognicore/murmur/pkg/murmur/internalerr"
)

// Label is a sentiment class.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// Labels lists every class in reporting order.
var Labels = []Label{Positive, Neutral, Negative}

// ParseLabel accepts a label in any case.
func ParseLabel(s string) (Label, error) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case Positive, Neutral, Negative:
		return l, nil
	}
	return "", fmt.Errorf("sentiment label %q: %w", s, internalerr.ErrInvalidInput)
}

// Prediction is the fixed result contract of a Classifier.
type Prediction struct {
	Label      Label
	Confidence float64
}

// Validate checks the label set and that confidence lies in [0,1].
func (p Prediction) Validate() error {
	if _, err := ParseLabel(string(p.Label)); err != nil {
		return err
	}
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range: %w", p.Confidence, internalerr.ErrInvalidInput)
	}
	return nil
}

// Classifier labels texts. It must return exactly one prediction per input,
// in input order.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]Prediction, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, texts []string) ([]Prediction, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, texts []string) ([]Prediction, error) {
	return f(ctx, texts)
}
