package annotate

import (
	"testing"
	"time"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
)

func TestAnnotate(t *testing.T) {
	a := New(config.Default())

	raw := news.RawItem{
		Title:       "Taylor Swift Announces New Album",
		Description: "The record arrives in October.",
		URL:         "https://www.billboard.com/music/taylor-album/?utm_source=rss",
		Source:      "billboard.com",
		Published:   "Fri, 03 Apr 2026 09:00:00 +0000",
	}
	item := a.Annotate(3, raw)

	if item.Index != 3 || item.Title != raw.Title {
		t.Errorf("raw fields not carried: %+v", item.RawItem)
	}
	if item.ID == "" || item.NormalizedTitle == "" || len(item.TitleTokens) == 0 {
		t.Errorf("annotation incomplete: %+v", item)
	}
	if item.Fingerprint == 0 {
		t.Errorf("expected a fingerprint for a titled item")
	}
	want := time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC)
	if item.PublishedAt == nil || !item.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", item.PublishedAt, want)
	}

	t.Run("id ignores tracking params", func(t *testing.T) {
		clean := raw
		clean.URL = "https://billboard.com/music/taylor-album"
		if got := a.Annotate(0, clean).ID; got != item.ID {
			t.Errorf("ID = %s, want %s", got, item.ID)
		}
	})

	t.Run("id depends on source", func(t *testing.T) {
		other := raw
		other.Source = "nme.com"
		if a.Annotate(0, other).ID == item.ID {
			t.Errorf("different outlets should get different IDs")
		}
	})

	t.Run("unparsable date", func(t *testing.T) {
		bad := raw
		bad.Published = "not-a-date"
		if got := a.Annotate(0, bad).PublishedAt; got != nil {
			t.Errorf("PublishedAt = %v, want nil", got)
		}
	})
}
