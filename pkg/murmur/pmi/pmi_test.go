package pmi

import (
	"math"
	"testing"

	"github.com/cognicore/murmur/pkg/murmur/match"
)

func TestPMIDefinition(t *testing.T) {
	// freq(cat)=3, freq(dog)=2, pair(cat,dog)=2, total=3: log2(1) = 0
	v, ok := PMI(2, 3, 2, 3)
	if !ok || math.Abs(v) > 1e-12 {
		t.Errorf("PMI = %v, %v; want 0, true", v, ok)
	}

	v, ok = PMI(1, 1, 1, 3)
	if !ok || math.Abs(v-math.Log2(3)) > 1e-12 {
		t.Errorf("PMI = %v, want log2(3)", v)
	}

	for _, args := range [][4]int64{{0, 1, 1, 3}, {1, 0, 1, 3}, {1, 1, 1, 0}} {
		if _, ok := PMI(args[0], args[1], args[2], args[3]); ok {
			t.Errorf("PMI%v should be undefined", args)
		}
	}
}

func TestCounterPairsAndSymmetry(t *testing.T) {
	c := NewCounter()
	c.AddText([]string{"dog", "cat"})
	c.AddText([]string{"cat", "dog"})
	c.AddText([]string{"cat", "bird"})

	if c.Total != 3 {
		t.Fatalf("Total = %d, want 3", c.Total)
	}
	if c.PairCount("dog", "cat") != 2 || c.PairCount("cat", "dog") != 2 {
		t.Errorf("pair count not symmetric")
	}
	if c.TokenCount("cat") != 3 {
		t.Errorf("cat count = %d", c.TokenCount("cat"))
	}

	ab, okAB := c.PMI("cat", "bird")
	ba, okBA := c.PMI("bird", "cat")
	if !okAB || !okBA || ab != ba {
		t.Errorf("pmi(cat,bird)=%v pmi(bird,cat)=%v", ab, ba)
	}
}

func TestAnalyzeDiscardsNonPositive(t *testing.T) {
	texts := []string{
		"brand cat dog",
		"brand cat dog",
		"brand cat bird",
	}
	got := Engine{}.Analyze(match.New("brand"), texts, Options{})
	if got.Texts != 3 {
		t.Errorf("Texts = %d, want 3", got.Texts)
	}
	if len(got.Pairs) != 0 {
		t.Errorf("expected every pair discarded, got %+v", got.Pairs)
	}
	if len(got.Related) != 0 {
		t.Errorf("expected no related words, got %+v", got.Related)
	}
}

func TestAnalyzeRanksAndFilters(t *testing.T) {
	texts := []string{
		"brand cat dog",
		"Brand: cat and... dog",
		"brand bird fish",
		"no pivot here cat fish",
		"br",
		"brandcat dog",
	}
	piv := match.New("brand")

	got := Engine{}.Analyze(piv, texts, Options{})
	if got.Texts != 3 {
		t.Fatalf("Texts = %d, want 3", got.Texts)
	}
	if len(got.Pairs) == 0 || got.Pairs[0].A != "bird" || got.Pairs[0].B != "fish" {
		t.Fatalf("top pair = %+v", got.Pairs)
	}
	for i := 1; i < len(got.Pairs); i++ {
		if got.Pairs[i].Score > got.Pairs[i-1].Score {
			t.Errorf("pairs not sorted by score: %+v", got.Pairs)
		}
	}
	for _, p := range got.Pairs {
		if p.PMI <= 0 {
			t.Errorf("non-positive pmi kept: %+v", p)
		}
		if p.A == "brand" || p.B == "brand" {
			t.Errorf("pivot not stripped: %+v", p)
		}
	}

	filtered := Engine{}.Analyze(piv, texts, Options{MinCount: 2})
	if len(filtered.Pairs) != 1 || filtered.Pairs[0].A != "cat" || filtered.Pairs[0].B != "dog" {
		t.Errorf("MinCount filter = %+v", filtered.Pairs)
	}

	top := Engine{}.Analyze(piv, texts, Options{TopN: 1, Rank: RankWeighted})
	if len(top.Pairs) != 1 {
		t.Fatalf("TopN = %d pairs", len(top.Pairs))
	}
	p := top.Pairs[0]
	if math.Abs(p.Score-Weighted(p.PMI, p.Count)) > 1e-12 {
		t.Errorf("weighted score = %v, want %v", p.Score, Weighted(p.PMI, p.Count))
	}
	if len(top.Related) != 2 {
		t.Errorf("related words should cover only returned pairs: %+v", top.Related)
	}
}

func TestAnalyzeRelatedWords(t *testing.T) {
	texts := []string{
		"pivot soft cozy",
		"pivot soft warm",
		"pivot leak rash",
		"pivot leak rash",
		"pivot leak rash",
	}
	got := Engine{}.Analyze(match.New("pivot"), texts, Options{})
	if len(got.Related) == 0 {
		t.Fatal("expected related words")
	}
	for i := 1; i < len(got.Related); i++ {
		if got.Related[i].Pairs > got.Related[i-1].Pairs {
			t.Errorf("related not ranked: %+v", got.Related)
		}
	}
	if got.Related[0].Word != "soft" || got.Related[0].Pairs != 2 {
		t.Errorf("top related = %+v", got.Related[0])
	}
}
