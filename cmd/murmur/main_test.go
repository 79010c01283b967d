package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/murmur/pkg/murmur"
	"github.com/cognicore/murmur/pkg/murmur/store"
)

const fixtures = "../../testdata/murmur"

func baseArgs(t *testing.T) []string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return []string{
		"--db", filepath.Join(t.TempDir(), "murmur.db"),
		"--catalog", filepath.Join(fixtures, "catalog.yaml"),
		"--rules", filepath.Join(fixtures, "rules.yaml"),
		"--stoplist", filepath.Join(fixtures, "stoplist.yaml"),
	}
}

func run(t *testing.T, base []string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(append([]string{}, args...), base...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, base []string, args ...string) string {
	t.Helper()
	out, err := run(t, base, args...)
	if err != nil {
		t.Fatalf("murmur %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func ingestFixture(t *testing.T, base []string) {
	t.Helper()
	out := mustRun(t, base, "ingest", filepath.Join(fixtures, "chat.jsonl"))
	var got map[string]int
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode ingest output: %v", err)
	}
	if got["messages"] != 8 {
		t.Fatalf("ingested %d messages, want 8", got["messages"])
	}
}

func TestBuildEngine(t *testing.T) {
	s := settings{
		DBPath:       filepath.Join(t.TempDir(), "test.db"),
		CatalogPath:  filepath.Join(fixtures, "catalog.yaml"),
		StoplistPath: filepath.Join(fixtures, "stoplist.yaml"),
	}
	eng, err := buildEngine(context.Background(), s)
	if err != nil {
		t.Fatalf("buildEngine failed: %v", err)
	}
	defer eng.Close()
	if len(eng.Catalog().Brands()) != 5 {
		t.Errorf("brands = %v", eng.Catalog().Brands())
	}
}

func TestBuildEngineErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []settings{
		{},
		{DBPath: filepath.Join(dir, "a.db"), CatalogPath: filepath.Join(dir, "missing.yaml")},
		{DBPath: filepath.Join(dir, "b.db"), Classifier: "bert"},
		{DBPath: filepath.Join(dir, "c.db"), Classifier: "openai"},
	}
	for _, s := range tests {
		if eng, err := buildEngine(context.Background(), s); err == nil {
			eng.Close()
			t.Errorf("buildEngine(%+v) should fail", s)
		}
	}
}

func TestFrequencyAndShare(t *testing.T) {
	base := baseArgs(t)
	ingestFixture(t, base)

	var freq murmur.FrequencyReport
	if err := json.Unmarshal([]byte(mustRun(t, base, "frequency", "--brand", "huggies")), &freq); err != nil {
		t.Fatal(err)
	}
	if freq.Windows != 2 || freq.ID == "" {
		t.Errorf("frequency = %+v", freq)
	}
	counts := map[string]int{}
	for _, c := range freq.Counts {
		counts[c.Term] = c.Count
	}
	if counts["soft"] != 1 || counts["night time"] != 1 || counts["absorbent"] != 1 {
		t.Errorf("counts = %v", counts)
	}

	var share murmur.ShareReport
	if err := json.Unmarshal([]byte(mustRun(t, base, "share", "--category", "diapers")), &share); err != nil {
		t.Fatal(err)
	}
	if share.Total != 4 || share.Brands[0].Brand != "huggies" || share.Brands[0].Percent != 75 {
		t.Errorf("share = %+v", share)
	}

	var cmp struct {
		Result struct {
			Results map[string]murmur.ShareReport `json:"results"`
		} `json:"result"`
	}
	out := mustRun(t, base, "compare", "--analysis", "share-of-voice", "--category", "diapers",
		"--granularity", "month", "--time1", "202401", "--time2", "202406")
	if err := json.Unmarshal([]byte(out), &cmp); err != nil {
		t.Fatal(err)
	}
	if cmp.Result.Results["202401"].Total != 2 || cmp.Result.Results["202406"].Total != 2 {
		t.Errorf("compare = %s", out)
	}

	if _, err := run(t, base, "compare", "--analysis", "share-of-voice", "--category", "diapers",
		"--granularity", "week", "--time1", "1", "--time2", "2"); err == nil {
		t.Error("expected invalid granularity error")
	}
}

func TestKeywordCommands(t *testing.T) {
	base := baseArgs(t)
	mustRun(t, base, "keyword", "add", "huggies", "overnight")

	var kws []string
	if err := json.Unmarshal([]byte(mustRun(t, base, "keyword", "list", "huggies")), &kws); err != nil {
		t.Fatal(err)
	}
	if kws[len(kws)-1] != "overnight" {
		t.Errorf("keywords = %v", kws)
	}
	if out := mustRun(t, base, "keyword", "remove", "huggies", "overnight"); !strings.Contains(out, "true") {
		t.Errorf("remove output = %s", out)
	}
	if _, err := run(t, base, "keyword", "add", "luvs", "x"); err == nil {
		t.Error("expected unknown brand error")
	}
}

func TestCorrectAndLookup(t *testing.T) {
	base := baseArgs(t)
	mustRun(t, base, "correct", "--text", "Morning mummies", "--sentiment", "Positive", "--rule", "manual")

	var rec store.SentimentRecord
	if err := json.Unmarshal([]byte(mustRun(t, base, "lookup", "--text", "Morning mummies")), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Sentiment != "positive" || rec.Score != 1 || rec.Rule != "manual" {
		t.Errorf("record = %+v", rec)
	}
	if _, err := run(t, base, "lookup", "--text", "never seen"); err == nil {
		t.Error("expected missing lookup error")
	}
	if _, err := run(t, base, "correct", "--text", "never seen", "--sentiment", "negative", "--require-existing"); err == nil {
		t.Error("expected require-existing error")
	}
}

// neutralLLM answers every classification prompt with one neutral label per
// numbered line.
func neutralLLM(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		n := strings.Count(req.Messages[len(req.Messages)-1].Content, "\n")
		labels := make([]map[string]interface{}, n)
		for i := range labels {
			labels[i] = map[string]interface{}{"label": "neutral", "score": 0.5}
		}
		content, _ := json.Marshal(labels)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": string(content)}},
			},
		})
	}))
}

func TestSentimentWithChatModel(t *testing.T) {
	srv := neutralLLM(t)
	defer srv.Close()

	base := append(baseArgs(t), "--llm-url", srv.URL, "--llm-model", "test", "--rpm", "0")
	ingestFixture(t, base)

	var rep murmur.SentimentReport
	if err := json.Unmarshal([]byte(mustRun(t, base, "sentiment", "--brand", "huggies")), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.TotalMentions != 3 || rep.Counts.Neutral != 2 || rep.Counts.Positive != 1 {
		t.Errorf("sentiment = %+v", rep)
	}
	var ruled bool
	for _, ex := range rep.Examples {
		if ex.Rule == "repurchase" {
			ruled = true
		}
	}
	if !ruled {
		t.Errorf("override rule not reported: %+v", rep.Examples)
	}
}
