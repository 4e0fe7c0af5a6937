package textnorm

import (
	"testing"

	"github.com/deusflow/musicnews/internal/config"
)

func newTestNormalizer() *Normalizer {
	return New(config.Default().Normalizer)
}

func TestText(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and collapse", "  Taylor   Swift\tAnnounces  New ALBUM ", "taylor swift announces new album"},
		{"boilerplate both ends", "BREAKING: Watch BTS perform 'Dynamite' LIVE!!", "bts perform dynamite"},
		{"allowed punctuation inside words", "K-Pop & R&B: the crossover", "k-pop r&b the crossover"},
		{"apostrophes kept", "Don't Stop Believin'", "don't stop believin"},
		{"only boilerplate", "Exclusive - Live", ""},
		{"smart quotes dropped", "“Midnights” tops charts", "midnights tops charts"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	n := newTestNormalizer()
	inputs := []string{
		"BREAKING: Watch BTS perform 'Dynamite' LIVE!!",
		"Live live LIVE breaking Exclusive news exclusive",
		"Beyoncé’s “Cowboy Carter” Tour — Update",
		"ﬁnal Ｆｕｌｌｗｉｄｔｈ title ①",
		"Straße & STRASSE",
		"--- ??? !!!",
		"watch: 'live' from the o2",
	}
	for _, in := range inputs {
		once := n.Text(in)
		if twice := n.Text(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestURL(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Billboard.com/News/Taylor-Swift/?utm_source=rss", "billboard.com/news/taylor-swift"},
		{"http://billboard.com//news//taylor-swift#comments", "billboard.com/news/taylor-swift"},
		{"https://site.com/read?p=42&utm_medium=x&id=7", "site.com/read?id=7&p=42"},
		{"site.com/path/", "site.com/path"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := n.URL(tt.in); got != tt.want {
				t.Errorf("URL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	a := n.URL("HTTPS://WWW.NME.COM/news/music/new-single-123?ref=home")
	b := n.URL("http://nme.com/news/music/new-single-123/")
	if a != b {
		t.Errorf("expected canonical URLs to match, got %q and %q", a, b)
	}
}
