package chatlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/murmur/pkg/murmur/internalerr"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<b>Huggies</b> are   <i>soft</i>", "Huggies are soft"},
		{"<Media omitted>", ""},
		{"This message was deleted", ""},
		{"rash &amp; leaks<script>alert(1)</script>", "rash & leaks"},
		{"line one\nline two", "line one line two"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	input := `{"group_id":"202401","text":"hi <b>all</b>","sent_at":"2024-02-03T10:00:00Z"}

{"group_id":"202401","text":"<Media omitted>","sent_at":"2024-02-03T10:01:00Z"}
{"group_id":"202402","ordinal":7,"text":"pampers again","sent_at":"2024-11-20T08:00:00Z"}
`
	msgs, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Text != "hi all" || msgs[0].Year != 2024 || msgs[0].Month != 2 || msgs[0].Quarter != 1 {
		t.Errorf("first = %+v", msgs[0])
	}
	if msgs[1].Ordinal != 7 || msgs[1].Quarter != 4 {
		t.Errorf("second = %+v", msgs[1])
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(strings.NewReader(`{"text":"no group"}`)); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("missing group: %v", err)
	}
	_, err := Load(strings.NewReader("{\"group_id\":\"a\",\"text\":\"ok\"}\nnot json\n"))
	if !errors.Is(err, internalerr.ErrInvalidInput) || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("bad json: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.jsonl")
	if err := os.WriteFile(path, []byte(`{"group_id":"g","text":"hello"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	msgs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Year != 0 {
		t.Errorf("msgs = %+v", msgs)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}
