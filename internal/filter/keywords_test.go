package filter

import (
	"testing"

	"paperscribe/internal/domain"
)

func TestMatchesFuzzyWordBoundary(t *testing.T) {
	t.Parallel()

	text := "Attention Mechanisms in Neural Networks"

	if !Matches(text, "attention", Fuzzy) {
		t.Fatalf("expected whole-word keyword to match")
	}
	if Matches(text, "attentions", Fuzzy) {
		t.Fatalf("keyword longer than the word must not match in fuzzy mode")
	}
	if !Matches(text, "atten", Exact) {
		t.Fatalf("expected substring to match in exact mode")
	}
	if Matches(text, "atten", Fuzzy) {
		t.Fatalf("partial word must not match in fuzzy mode")
	}
}

func TestMatchesCaseInsensitive(t *testing.T) {
	t.Parallel()

	text := "Attention is all you need"
	for _, kw := range []string{"ATTENTION", "Attention", " attention "} {
		if !Matches(text, kw, Fuzzy) {
			t.Fatalf("keyword %q should match after normalization", kw)
		}
	}
}

func TestMatchPaperReturnsMatchedSubset(t *testing.T) {
	t.Parallel()

	paper := domain.Paper{
		Title:      "Attention Mechanisms in Neural Networks",
		Abstract:   "We study transformers for sequence modeling.",
		Categories: []string{"cs.LG"},
	}

	matched := MatchPaper(paper, []string{"attention", "transformers", "diffusion", "cs.lg"}, Fuzzy)

	want := map[string]bool{"attention": true, "transformers": true, "cs.lg": true}
	if len(matched) != len(want) {
		t.Fatalf("expected %d matches, got %v", len(want), matched)
	}
	for _, kw := range matched {
		if !want[kw] {
			t.Fatalf("unexpected matched keyword %q", kw)
		}
	}
}

func TestMatchPaperDistinctKeywordStrings(t *testing.T) {
	t.Parallel()

	paper := domain.Paper{Title: "Attention Mechanisms"}
	matched := MatchPaper(paper, []string{"ATTENTION", "Attention"}, Fuzzy)
	if len(matched) != 2 {
		t.Fatalf("distinct supplied keyword strings must both be returned, got %v", matched)
	}
}

func TestFilterPapersDropsNonMatching(t *testing.T) {
	t.Parallel()

	papers := []domain.Paper{
		{ID: "1", Title: "Graph neural networks"},
		{ID: "2", Title: "Quantum error correction"},
		{ID: "3", Title: "Neural radiance fields"},
	}

	filtered := FilterPapers(papers, []string{"neural"}, Fuzzy)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 filtered papers, got %d", len(filtered))
	}
	if filtered[0].Paper.ID != "1" || filtered[1].Paper.ID != "3" {
		t.Fatalf("filtered papers must preserve input order: %v", filtered)
	}
	if len(filtered[0].Keywords) != 1 || filtered[0].Keywords[0] != "neural" {
		t.Fatalf("unexpected matched keywords: %v", filtered[0].Keywords)
	}
}
