package llm

import (
	"context"
	"fmt"

	"github.com/cognicore/murmur/pkg/murmur/perception"
)

const phrasePrompt = `Extract the %d most salient keyphrases (one to three words) from the text.
Reply with a JSON array only: [{"keyword": "...", "score": relevance between 0 and 1}].`

const tagPrompt = `Give the universal part-of-speech tags (ADJ, ADV, NOUN, PROPN, VERB, DET, ADP, PRON, NUM, OTHER) of every word in each numbered phrase.
Reply with a JSON array only, one array of tags per phrase, in phrase order.`

// PhraseExtractor mines keyphrases with a chat model.
type PhraseExtractor struct {
	Client *Client
}

// ExtractPhrases returns at most n scored phrases of text.
func (p PhraseExtractor) ExtractPhrases(ctx context.Context, text string, n int) ([]perception.Phrase, error) {
	if n <= 0 {
		n = 10
	}
	var phrases []perception.Phrase
	if err := p.Client.ChatJSON(ctx, fmt.Sprintf(phrasePrompt, n), text, &phrases); err != nil {
		return nil, err
	}
	if len(phrases) > n {
		phrases = phrases[:n]
	}
	return phrases, nil
}

// Tagger assigns part-of-speech tags with a chat model.
type Tagger struct {
	Client *Client
}

// Tag returns the tags of every phrase.
func (t Tagger) Tag(ctx context.Context, phrases []string) ([][]string, error) {
	if len(phrases) == 0 {
		return nil, nil
	}
	var tags [][]string
	if err := t.Client.ChatJSON(ctx, tagPrompt, numbered(phrases), &tags); err != nil {
		return nil, err
	}
	if len(tags) != len(phrases) {
		return nil, fmt.Errorf("llm: %d tag lists for %d phrases", len(tags), len(phrases))
	}
	return tags, nil
}
