package ingest

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tok := NewTokenizer(0, []string{"The"})

	tests := []struct {
		input string
		want  []string
	}{
		{"The baby LOVES diapers", []string{"baby", "loves", "diapers"}},
		{"no go ok", nil},
		{"size4 diapers_x", []string{"size", "diapers"}},
		{"don't", []string{"don"}},
		{"café crème", []string{"café", "crème"}},
	}
	for _, tt := range tests {
		if got := tok.Tokenize(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTokenizeMinLen(t *testing.T) {
	tok := NewTokenizer(4, nil)
	got := tok.Tokenize("cat bird dogs")
	if want := []string{"bird", "dogs"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestUnique(t *testing.T) {
	tok := NewTokenizer(0, nil)
	got := tok.Unique("soft soft diapers are soft")
	if want := []string{"soft", "diapers", "are"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Unique = %v, want %v", got, want)
	}
}

func TestWithLeavesOriginal(t *testing.T) {
	base := NewTokenizer(0, []string{"the"})
	ext := base.With("Pampers")
	if got := ext.Tokenize("the pampers pack"); !reflect.DeepEqual(got, []string{"pack"}) {
		t.Errorf("With tokens = %v", got)
	}
	if got := base.Tokenize("the pampers pack"); !reflect.DeepEqual(got, []string{"pampers", "pack"}) {
		t.Errorf("base tokens = %v", got)
	}
}
