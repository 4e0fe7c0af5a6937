package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/deusflow/musicnews/internal/news"
)

const (
	ReportVersion = "1.0"
	ReportSource  = "Music News Automation System"

	topTagsLimit = 5
)

// ReportItem is one ranked item as published in the report.
type ReportItem struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Summary         string        `json:"summary"`
	URL             string        `json:"url"`
	Source          string        `json:"source"`
	PublishedDate   string        `json:"published_date"`
	ImportanceScore float64       `json:"importance_score"`
	TrendingScore   *float64      `json:"trending_score,omitempty"`
	Tags            news.Tags     `json:"tags"`
	Category        news.Category `json:"category"`
}

// ReportMetadata describes the run that produced a report.
type ReportMetadata struct {
	GeneratedAt time.Time             `json:"generated_at"`
	RunID       string                `json:"run_id"`
	TotalNews   int                   `json:"total_news"`
	Categories  map[news.Category]int `json:"categories"`
	Version     string                `json:"version"`
	Source      string                `json:"source"`
}

type ReportSummary struct {
	TopGenres     []string `json:"top_genres"`
	TopRegions    []string `json:"top_regions"`
	TopIndustries []string `json:"top_industries"`
}

// Report is the JSON document written after every run.
type Report struct {
	Metadata ReportMetadata                 `json:"metadata"`
	News     map[news.Category][]ReportItem `json:"news"`
	Summary  ReportSummary                  `json:"summary"`
}

// BuildReport groups the ranked items by category. Every category is
// present in both the news map and the counts, empty when nothing ranked.
func BuildReport(runID string, ranked []*news.ClassifiedItem, generatedAt time.Time) *Report {
	r := &Report{
		Metadata: ReportMetadata{
			GeneratedAt: generatedAt,
			RunID:       runID,
			TotalNews:   len(ranked),
			Categories:  make(map[news.Category]int),
			Version:     ReportVersion,
			Source:      ReportSource,
		},
		News: make(map[news.Category][]ReportItem),
	}
	for _, c := range news.AllCategories() {
		r.News[c] = []ReportItem{}
		r.Metadata.Categories[c] = 0
	}

	for _, it := range ranked {
		category := it.Category
		if !category.Valid() {
			category = news.CategoryNews
		}
		r.News[category] = append(r.News[category], toReportItem(it, category))
		r.Metadata.Categories[category]++
	}

	r.Summary = ReportSummary{
		TopGenres:     topTags(ranked, func(t news.Tags) []string { return t.Genre }),
		TopRegions:    topTags(ranked, func(t news.Tags) []string { return t.Region }),
		TopIndustries: topTags(ranked, func(t news.Tags) []string { return t.Industry }),
	}
	return r
}

func toReportItem(it *news.ClassifiedItem, category news.Category) ReportItem {
	n := it.Item
	published := n.Published
	if n.PublishedAt != nil {
		published = n.PublishedAt.UTC().Format(time.RFC3339)
	}
	tags := it.Tags
	if tags.Genre == nil || tags.Industry == nil || tags.Region == nil {
		empty := news.EmptyTags()
		if tags.Genre == nil {
			tags.Genre = empty.Genre
		}
		if tags.Industry == nil {
			tags.Industry = empty.Industry
		}
		if tags.Region == nil {
			tags.Region = empty.Region
		}
	}
	return ReportItem{
		ID:              n.ID,
		Title:           n.Title,
		Summary:         it.Summary,
		URL:             n.URL,
		Source:          n.Source,
		PublishedDate:   published,
		ImportanceScore: it.Importance,
		TrendingScore:   it.Trending,
		Tags:            tags,
		Category:        category,
	}
}

// topTags returns the most frequent labels, ties in order of first
// appearance.
func topTags(items []*news.ClassifiedItem, dim func(news.Tags) []string) []string {
	counts := make(map[string]int)
	var order []string
	for _, it := range items {
		for _, label := range dim(it.Tags) {
			if counts[label] == 0 {
				order = append(order, label)
			}
			counts[label]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topTagsLimit {
		order = order[:topTagsLimit]
	}
	if order == nil {
		order = []string{}
	}
	return order
}

// Marshal renders the report as indented JSON.
func (r *Report) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// ReportWriter saves reports to the output path and, when archiveDir is
// set, a timestamped copy next to the previous ones.
type ReportWriter struct {
	path       string
	archiveDir string
}

func NewReportWriter(path, archiveDir string) *ReportWriter {
	return &ReportWriter{path: path, archiveDir: archiveDir}
}

// Save writes the report and returns the archive file path ("" when no
// archive directory is configured).
func (w *ReportWriter) Save(r *Report) (string, error) {
	data, err := r.Marshal()
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := writeFileAtomic(w.path, data); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	if w.archiveDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(w.archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive dir: %w", err)
	}
	name := fmt.Sprintf("music_news_%s.json", r.Metadata.GeneratedAt.Format("20060102_150405"))
	archivePath := filepath.Join(w.archiveDir, name)
	if err := os.WriteFile(archivePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return archivePath, nil
}

// Load reads a report written by Save.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}

// writeFileAtomic replaces path in one rename so readers never see a
// half-written report.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
