package provider

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/cognicore/murmur/pkg/murmur/sentiment"
)

type fakeResponder struct {
	errs  []error
	reply string
	calls int
	last  responses.ResponseNewParams
}

func (f *fakeResponder) New(_ context.Context, body responses.ResponseNewParams, _ ...option.RequestOption) (*responses.Response, error) {
	f.calls++
	f.last = body
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	raw, _ := json.Marshal(map[string]interface{}{
		"id":     "resp_1",
		"object": "response",
		"output": []map[string]interface{}{{
			"type":   "message",
			"id":     "msg_1",
			"role":   "assistant",
			"status": "completed",
			"content": []map[string]interface{}{{
				"type":        "output_text",
				"text":        f.reply,
				"annotations": []interface{}{},
			}},
		}},
	})
	var resp responses.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func TestLabelSchemaIsStrict(t *testing.T) {
	if labelSchema["additionalProperties"] != false {
		t.Fatalf("root schema not closed: %v", labelSchema)
	}
	props := labelSchema["properties"].(map[string]interface{})
	items := props["labels"].(map[string]interface{})["items"].(map[string]interface{})
	if items["additionalProperties"] != false {
		t.Errorf("item schema not closed: %v", items)
	}
	required, _ := items["required"].([]string)
	if len(required) != 3 {
		t.Errorf("item required = %v", items["required"])
	}
}

func TestClassify(t *testing.T) {
	fake := &fakeResponder{
		errs:  []error{errors.New("POST: 429 Too Many Requests")},
		reply: `{"labels":[{"index":1,"label":"negative","score":0.7},{"index":0,"label":"positive","score":0.95}]}`,
	}
	c := &Classifier{Responses: fake, Model: "test-model", Backoff: []time.Duration{time.Millisecond}}

	preds, err := c.Classify(context.Background(), []string{"love it", "leaks\nevery night"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("calls = %d, want 2", fake.calls)
	}
	if preds[0].Label != sentiment.Positive || preds[1].Label != sentiment.Negative || preds[1].Confidence != 0.7 {
		t.Errorf("predictions = %+v", preds)
	}
	if fake.last.Model != "test-model" {
		t.Errorf("model = %q", fake.last.Model)
	}
}

func TestClassifyDoesNotRetryClientErrors(t *testing.T) {
	fake := &fakeResponder{errs: []error{errors.New("400 bad request"), errors.New("unreachable")}}
	c := &Classifier{Responses: fake, Backoff: []time.Duration{time.Millisecond, time.Millisecond}}
	if _, err := c.Classify(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error")
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1", fake.calls)
	}
}

func TestToPredictions(t *testing.T) {
	_, err := toPredictions(labelSet{Labels: []labelItem{{Index: 0, Label: "positive"}}}, 2)
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("expected missing label error, got %v", err)
	}
	_, err = toPredictions(labelSet{Labels: []labelItem{{Index: 0}, {Index: 0}}}, 2)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate error, got %v", err)
	}
	_, err = toPredictions(labelSet{Labels: []labelItem{{Index: 5}}}, 1)
	if err == nil {
		t.Error("expected out of range error")
	}
}

func TestDecodeModelJSON(t *testing.T) {
	var out labelSet
	if err := decodeModelJSON("Sure! {\"labels\":[{\"index\":0,\"label\":\"neutral\",\"score\":0.5}]} hope that helps", &out); err != nil {
		t.Fatalf("decodeModelJSON: %v", err)
	}
	if len(out.Labels) != 1 || out.Labels[0].Label != "neutral" {
		t.Errorf("decoded = %+v", out)
	}
	if err := decodeModelJSON("   ", &out); err == nil {
		t.Error("expected error for empty output")
	}
}

func TestBuildInput(t *testing.T) {
	got := buildInput([]string{"a", "b\nc"})
	if got != "0: a\n1: b c\n" {
		t.Errorf("buildInput = %q", got)
	}
}
