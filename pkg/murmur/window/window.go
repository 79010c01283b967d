// Package window expands term mentions into merged conversational context
// windows.
package window

import (
	"sort"

	"github.com/cognicore/murmur/pkg/murmur/store"
)

// DefaultHalfWidth is the number of messages kept on each side of a mention.
const DefaultHalfWidth = 6

// StatusNoMentions is reported when no message matched the predicate.
const StatusNoMentions = "no mentions"

// Predicate decides whether a message text is a mention. *match.Matcher and
// *match.Set both satisfy it.
type Predicate interface {
	Match(text string) bool
}

// Span is an inclusive ordinal interval inside one group.
type Span struct {
	GroupID string
	Start   int
	End     int
}

// Window is a merged span with its messages attached in ordinal order.
type Window struct {
	Span
	Messages []store.Message
}

// Result holds the windows of a build. Status is StatusNoMentions when
// Windows is empty.
type Result struct {
	Windows []Window
	Status  string
}

// Texts flattens the window messages into a text collection.
func (r Result) Texts() []string {
	var out []string
	for _, w := range r.Windows {
		for _, m := range w.Messages {
			out = append(out, m.Text)
		}
	}
	return out
}

// Builder computes context windows. The zero value uses DefaultHalfWidth
// and merges overlapping windows.
type Builder struct {
	HalfWidth int
	// NoMerge returns the raw clamped windows, one per mention.
	NoMerge bool
}

// Build finds every message matching pred and returns the context windows
// around them. Groups containing duplicate ordinals are skipped.
func (b Builder) Build(msgs []store.Message, pred Predicate) Result {
	w := b.HalfWidth
	if w <= 0 {
		w = DefaultHalfWidth
	}

	groups, order := groupMessages(msgs)

	var windows []Window
	for _, gid := range order {
		list := groups[gid]
		if len(list) == 0 || hasDuplicateOrdinals(list) {
			continue
		}
		lo, hi := list[0].Ordinal, list[len(list)-1].Ordinal

		var spans []Span
		for _, m := range list {
			if !pred.Match(m.Text) {
				continue
			}
			spans = append(spans, Span{
				GroupID: gid,
				Start:   max(lo, m.Ordinal-w),
				End:     min(hi, m.Ordinal+w),
			})
		}
		if !b.NoMerge {
			spans = Merge(spans)
		}
		for _, sp := range spans {
			windows = append(windows, Window{Span: sp, Messages: attach(list, sp)})
		}
	}

	res := Result{Windows: windows}
	if len(windows) == 0 {
		res.Status = StatusNoMentions
	}
	return res
}

// Merge folds overlapping spans of the same group into one.
// A span whose start is at or before the running end is absorbed. The
// output is sorted by group then start, and Merge(Merge(x)) == Merge(x).
func Merge(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].GroupID != sorted[j].GroupID {
			return sorted[i].GroupID < sorted[j].GroupID
		}
		return sorted[i].Start < sorted[j].Start
	})

	out := []Span{sorted[0]}
	for _, sp := range sorted[1:] {
		cur := &out[len(out)-1]
		if sp.GroupID == cur.GroupID && sp.Start <= cur.End {
			if sp.End > cur.End {
				cur.End = sp.End
			}
			continue
		}
		out = append(out, sp)
	}
	return out
}

func groupMessages(msgs []store.Message) (map[string][]store.Message, []string) {
	groups := make(map[string][]store.Message)
	for _, m := range msgs {
		groups[m.GroupID] = append(groups[m.GroupID], m)
	}
	order := make([]string, 0, len(groups))
	for gid, list := range groups {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Ordinal < list[j].Ordinal })
		order = append(order, gid)
	}
	sort.Strings(order)
	return groups, order
}

func hasDuplicateOrdinals(sorted []store.Message) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Ordinal == sorted[i-1].Ordinal {
			return true
		}
	}
	return false
}

// attach returns the messages of a sorted group whose ordinal lies in sp.
func attach(sorted []store.Message, sp Span) []store.Message {
	from := sort.Search(len(sorted), func(i int) bool { return sorted[i].Ordinal >= sp.Start })
	var out []store.Message
	for _, m := range sorted[from:] {
		if m.Ordinal > sp.End {
			break
		}
		out = append(out, m)
	}
	return out
}
