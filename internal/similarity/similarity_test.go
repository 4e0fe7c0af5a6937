package similarity

import (
	"math"
	"testing"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
)

const eps = 1e-9

func newTestScorer() *Scorer {
	return New(config.Default().Similarity)
}

func item(s *Scorer, title string, keywords ...string) *news.NormalizedItem {
	return &news.NormalizedItem{
		NormalizedTitle: title,
		TitleTokens:     s.TitleTokens(title),
		CoreKeywords:    keywords,
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"a", "b"}, []string{"b", "a"}, 1},
		{"half", []string{"a", "b"}, []string{"a", "c"}, 1.0 / 3},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"empty left", nil, []string{"a"}, 0},
		{"both empty", nil, nil, 0},
		{"duplicates collapse", []string{"a", "a"}, []string{"a"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); math.Abs(got-tt.want) > eps {
				t.Errorf("Jaccard(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTitleSimilarity_DropsStopwords(t *testing.T) {
	s := newTestScorer()
	a := item(s, "taylor swift announces new album")
	b := item(s, "taylor swift announces new album the life of a showgirl")

	got := TitleSimilarity(a, b)
	if math.Abs(got-5.0/7) > eps {
		t.Fatalf("TitleSimilarity = %v, want %v", got, 5.0/7)
	}
	if got != TitleSimilarity(b, a) {
		t.Errorf("title similarity is not symmetric")
	}
}

func TestTitleSimilarity_EmptyTitle(t *testing.T) {
	s := newTestScorer()
	if got := TitleSimilarity(item(s, ""), item(s, "anything")); got != 0 {
		t.Errorf("expected 0 for empty title, got %v", got)
	}
	if got := TitleSimilarity(item(s, "the of a"), item(s, "the of a")); got != 0 {
		t.Errorf("stopword-only titles should have no tokens, got %v", got)
	}
}

func TestCombined(t *testing.T) {
	s := newTestScorer()
	a := item(s, "drake drops new single", "drake", "drops", "single")
	b := item(s, "drake drops new single", "drake", "single")

	// title 1.0, keywords 2/3
	want := 0.7*1 + 0.3*(2.0/3)
	if got := s.Combined(a, b); math.Abs(got-want) > eps {
		t.Errorf("Combined = %v, want %v", got, want)
	}
}

func TestURLEquals(t *testing.T) {
	a := &news.NormalizedItem{NormalizedURL: "billboard.com/x"}
	b := &news.NormalizedItem{NormalizedURL: "billboard.com/x"}
	if !URLEquals(a, b) {
		t.Errorf("expected equal URLs")
	}
	if URLEquals(&news.NormalizedItem{}, &news.NormalizedItem{}) {
		t.Errorf("items without URL must not match")
	}
}

func TestSharesHighProfile(t *testing.T) {
	a := &news.NormalizedItem{HighProfile: []string{"drake", "taylor swift"}}
	b := &news.NormalizedItem{HighProfile: []string{"taylor swift"}}
	c := &news.NormalizedItem{HighProfile: []string{"adele"}}
	if !SharesHighProfile(a, b) || !SharesHighProfile(b, a) {
		t.Errorf("expected shared entity")
	}
	if SharesHighProfile(a, c) {
		t.Errorf("unexpected shared entity")
	}
}

func TestFingerprint(t *testing.T) {
	s := newTestScorer()

	a := s.Fingerprint([]string{"album", "taylor swift"}, s.TitleTokens("taylor swift album new"))
	b := s.Fingerprint([]string{"taylor swift", "album"}, s.TitleTokens("new album taylor swift"))
	if a == 0 || a != b {
		t.Fatalf("expected equal non-zero fingerprints, got %d and %d", a, b)
	}

	c := s.Fingerprint([]string{"album"}, s.TitleTokens("drake album new"))
	if a == c {
		t.Errorf("different content produced the same fingerprint")
	}

	// Short tokens and stopwords alone produce no fingerprint.
	if got := s.Fingerprint(nil, s.TitleTokens("an ep of it")); got != 0 {
		t.Errorf("expected 0 fingerprint, got %d", got)
	}
}

func TestFingerprint_CapsTokens(t *testing.T) {
	cfg := config.Default().Similarity
	cfg.FingerprintMaxTokens = 2
	s := New(cfg)

	a := s.Fingerprint(nil, []string{"aaa", "bbb", "ccc"})
	b := s.Fingerprint(nil, []string{"aaa", "bbb", "zzz"})
	if a != b {
		t.Errorf("tokens beyond the cap should not affect the fingerprint")
	}
}
