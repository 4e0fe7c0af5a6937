package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/deusflow/musicnews/internal/news"
)

func ranked(id string, category news.Category, importance float64, tags news.Tags) *news.ClassifiedItem {
	return &news.ClassifiedItem{
		Item: &news.NormalizedItem{
			RawItem: news.RawItem{Title: "Title " + id, URL: "https://example.com/" + id, Source: "billboard.com", Published: "yesterday"},
			ID:      id,
		},
		Category:   category,
		Tags:       tags,
		Importance: importance,
		Summary:    "Summary " + id,
	}
}

func sampleItems() []*news.ClassifiedItem {
	published := time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC)
	first := ranked("a", news.CategoryNews, 0.9, news.Tags{Genre: []string{"POP"}, Industry: []string{"TOUR"}, Region: []string{}})
	first.Item.PublishedAt = &published
	return []*news.ClassifiedItem{
		first,
		ranked("b", news.CategoryNews, 0.8, news.Tags{Genre: []string{"ROCK", "POP"}, Industry: []string{}, Region: []string{}}),
		ranked("c", news.CategoryReport, 0.7, news.Tags{Genre: []string{}, Industry: []string{"CHARTS"}, Region: []string{}}),
		ranked("d", news.CategoryInterview, 0.6, news.Tags{}),
	}
}

func TestBuildReport(t *testing.T) {
	now := time.Date(2026, 4, 4, 10, 0, 0, 0, time.UTC)
	r := BuildReport("run-1", sampleItems(), now)

	if r.Metadata.TotalNews != 4 || r.Metadata.RunID != "run-1" || r.Metadata.Version != ReportVersion {
		t.Errorf("unexpected metadata: %+v", r.Metadata)
	}
	wantCounts := map[news.Category]int{
		news.CategoryNews: 2, news.CategoryReport: 1, news.CategoryInsight: 0,
		news.CategoryInterview: 1, news.CategoryColumn: 0,
	}
	if !reflect.DeepEqual(r.Metadata.Categories, wantCounts) {
		t.Errorf("categories = %v, want %v", r.Metadata.Categories, wantCounts)
	}
	if got := r.News[news.CategoryColumn]; got == nil || len(got) != 0 {
		t.Errorf("empty category should be an empty list, got %v", got)
	}

	first := r.News[news.CategoryNews][0]
	if first.ID != "a" || first.PublishedDate != "2026-04-03T09:00:00Z" || first.Summary != "Summary a" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if r.News[news.CategoryNews][1].PublishedDate != "yesterday" {
		t.Errorf("raw date text should be kept when unparsed")
	}
	if tags := r.News[news.CategoryInterview][0].Tags; tags.Genre == nil || tags.Region == nil {
		t.Errorf("nil tag slices should become empty lists: %+v", tags)
	}

	if !reflect.DeepEqual(r.Summary.TopGenres, []string{"POP", "ROCK"}) {
		t.Errorf("top genres = %v", r.Summary.TopGenres)
	}
	if !reflect.DeepEqual(r.Summary.TopIndustries, []string{"TOUR", "CHARTS"}) {
		t.Errorf("top industries = %v", r.Summary.TopIndustries)
	}
	if r.Summary.TopRegions == nil || len(r.Summary.TopRegions) != 0 {
		t.Errorf("top regions = %v", r.Summary.TopRegions)
	}
}

func TestTopTagsLimit(t *testing.T) {
	var items []*news.ClassifiedItem
	for _, g := range []string{"A", "B", "C", "D", "E", "F", "F"} {
		items = append(items, ranked(g, news.CategoryNews, 0.5, news.Tags{Genre: []string{g}}))
	}
	got := topTags(items, func(t news.Tags) []string { return t.Genre })
	want := []string{"F", "A", "B", "C", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("topTags = %v, want %v", got, want)
	}
}

func TestReportWriter_Save(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "music_news.json")
	archive := filepath.Join(dir, "archive")

	now := time.Date(2026, 4, 4, 10, 30, 0, 0, time.UTC)
	r := BuildReport("run-2", sampleItems(), now)

	archivePath, err := NewReportWriter(out, archive).Save(r)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if want := filepath.Join(archive, "music_news_20260404_103000.json"); archivePath != want {
		t.Errorf("archive path = %q, want %q", archivePath, want)
	}
	if _, err := os.Stat(archivePath); err != nil {
		t.Errorf("archive copy missing: %v", err)
	}

	loaded, err := Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Metadata.RunID != "run-2" || len(loaded.News[news.CategoryNews]) != 2 {
		t.Errorf("unexpected loaded report: %+v", loaded.Metadata)
	}

	noArchive, err := NewReportWriter(filepath.Join(dir, "plain.json"), "").Save(r)
	if err != nil || noArchive != "" {
		t.Errorf("Save without archive = %q, %v", noArchive, err)
	}
}
