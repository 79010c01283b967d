// Package chatlog loads chat messages from JSON Lines exports.
package chatlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/cognicore/murmur/pkg/murmur/internalerr"
	"github.com/cognicore/murmur/pkg/murmur/store"
)

// Record is one line of a chat export.
type Record struct {
	GroupID string    `json:"group_id"`
	Ordinal int       `json:"ordinal,omitempty"`
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sent_at"`
}

var placeholders = []string{"<Media omitted>", "This message was deleted"}

// Load reads records from r. Markup and export placeholders are removed
// and messages left empty are skipped. Ordinals are assigned by the store.
func Load(r io.Reader) ([]store.Message, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var out []store.Message
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, internalerr.ErrInvalidInput)
		}
		if rec.GroupID == "" {
			return nil, fmt.Errorf("line %d: missing group_id: %w", line, internalerr.ErrInvalidInput)
		}
		text := Clean(rec.Text)
		if text == "" {
			continue
		}
		m := store.Message{GroupID: rec.GroupID, Ordinal: rec.Ordinal, Text: text, SentAt: rec.SentAt}
		if !rec.SentAt.IsZero() {
			m.Year, m.Month, m.Quarter = store.PeriodOf(rec.SentAt)
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFile reads a JSON Lines file.
func LoadFile(path string) ([]store.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Clean strips markup and export placeholders and collapses whitespace.
func Clean(s string) string {
	for _, p := range placeholders {
		s = strings.ReplaceAll(s, p, " ")
	}
	return strings.Join(strings.Fields(stripHTML(s)), " ")
}

func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)
	return buf.String()
}
