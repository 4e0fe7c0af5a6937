package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/logger"
	"github.com/deusflow/musicnews/internal/metrics"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/storage"
)

var now = time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)

type staticSource struct {
	items []news.RawItem
	err   error
}

func (s staticSource) Collect(context.Context) ([]news.RawItem, error) {
	return s.items, s.err
}

type recordingArchiver struct{ names []string }

func (r *recordingArchiver) UploadReport(_ context.Context, name string, data []byte) (string, error) {
	r.names = append(r.names, name)
	return "prefix/" + name, nil
}

type recordingPublisher struct{ runs map[string]int }

func (r *recordingPublisher) Publish(_ context.Context, runID string, items []*news.ClassifiedItem) (int, error) {
	if r.runs == nil {
		r.runs = make(map[string]int)
	}
	r.runs[runID] = len(items)
	return len(items), nil
}

type recordingDeliverer struct {
	calls int
	err   error
}

func (r *recordingDeliverer) SendDigest(context.Context, []*news.ClassifiedItem, time.Time) (int, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	return 1, nil
}

func rawBatch() []news.RawItem {
	published := now.Add(-3 * time.Hour).Format(time.RFC1123Z)
	return []news.RawItem{
		{Title: "Beyonce Confirms Cowboy Carter World Tour Dates", Description: "Stadium dates were confirmed.", URL: "https://billboard.com/music/beyonce-tour", Source: "billboard.com", Published: published},
		{Title: "Beyonce Confirms Cowboy Carter World Tour Dates", Description: "The singer shared the schedule.", URL: "https://www.billboard.com/music/beyonce-tour/?utm_source=rss", Source: "hotnewhiphop.com", Published: published},
		{Title: "Vinyl Sales Climb Fifth Straight Year", Description: "Industry data shows physical revenue growth.", URL: "https://variety.com/vinyl", Source: "variety.com"},
		{Title: "", Description: "No title here.", URL: "https://example.com/untitled", Source: "example.com"},
	}
}

type fixture struct {
	app       *App
	metrics   *metrics.Metrics
	archiver  *recordingArchiver
	publisher *recordingPublisher
	deliverer *recordingDeliverer
	output    string
}

func newFixture(t *testing.T, production bool, src Source) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.Path = filepath.Join(dir, "music_news.json")
	cfg.Output.ArchiveDir = filepath.Join(dir, "archive")

	f := &fixture{
		metrics:   metrics.New(),
		archiver:  &recordingArchiver{},
		publisher: &recordingPublisher{},
		deliverer: &recordingDeliverer{},
		output:    cfg.Output.Path,
	}
	f.app = NewWithDeps(cfg, production, Deps{
		Source:    src,
		Writer:    storage.NewReportWriter(cfg.Output.Path, cfg.Output.ArchiveDir),
		Archiver:  f.archiver,
		Publisher: f.publisher,
		Deliverer: f.deliverer,
	}, logger.Discard(), f.metrics).WithClock(func() time.Time { return now })
	return f
}

func TestRunOnce(t *testing.T) {
	f := newFixture(t, false, staticSource{items: rawBatch()})

	res, err := f.app.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(res.Items) != 2 || len(res.Skipped) != 1 {
		t.Fatalf("items = %d, skipped = %d; want 2 and 1", len(res.Items), len(res.Skipped))
	}
	for _, it := range res.Ranked {
		if it.Summary == "" {
			t.Errorf("ranked item %q has no summary", it.Item.Title)
		}
	}

	report, err := storage.Load(f.output)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if report.Metadata.RunID != res.RunID || report.Metadata.TotalNews != len(res.Ranked) {
		t.Errorf("unexpected report metadata: %+v", report.Metadata)
	}

	if len(f.archiver.names) != 1 || f.archiver.names[0] != "music_news_20260510_180000.json" {
		t.Errorf("archive uploads = %v", f.archiver.names)
	}
	if f.publisher.runs[res.RunID] != len(res.Ranked) {
		t.Errorf("published = %v", f.publisher.runs)
	}
	if f.deliverer.calls != 0 {
		t.Errorf("digest delivered outside production mode")
	}

	stats := f.metrics.GetStats()
	if stats["last_run_id"] != res.RunID || stats["is_healthy"] != true {
		t.Errorf("metrics not updated: %v", stats)
	}

	rec := httptest.NewRecorder()
	f.app.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/last-run", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/api/last-run = %d", rec.Code)
	}
	var run struct {
		DuplicatesRemoved int            `json:"duplicates_removed"`
		MergeRules        map[string]int `json:"merge_rules"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode last run: %v", err)
	}
	if run.DuplicatesRemoved != 1 || run.MergeRules["url"] != 1 {
		t.Errorf("last run = %+v, want one url merge", run)
	}
}

func TestRunOnce_Production(t *testing.T) {
	f := newFixture(t, true, staticSource{items: rawBatch()})
	if _, err := f.app.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if f.deliverer.calls != 1 {
		t.Errorf("deliverer called %d times, want 1", f.deliverer.calls)
	}
	if f.metrics.GetStats()["telegram_messages_sent"] != int64(1) {
		t.Errorf("telegram messages not counted")
	}

	f.deliverer.err = errors.New("chat not found")
	if _, err := f.app.RunOnce(context.Background()); err == nil {
		t.Errorf("expected the delivery error to fail the run")
	}
	if f.metrics.Healthy() {
		t.Errorf("failed delivery should mark the process unhealthy")
	}
}

func TestRunOnce_Errors(t *testing.T) {
	f := newFixture(t, false, staticSource{err: errors.New("no feed could be loaded")})
	if _, err := f.app.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected a collect error")
	}
	if f.metrics.Healthy() {
		t.Errorf("collect failure should mark the process unhealthy")
	}

	empty := newFixture(t, false, staticSource{})
	if _, err := empty.app.RunOnce(context.Background()); !errors.Is(err, news.ErrNothingToProcess) {
		t.Errorf("expected ErrNothingToProcess, got %v", err)
	}
	if !empty.metrics.Healthy() {
		t.Errorf("an empty batch is not a failure")
	}
}
