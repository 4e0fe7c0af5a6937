package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"

	"github.com/deusflow/musicnews/internal/logger"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/retry"
)

type fakeProducer struct {
	sent     []*sarama.ProducerMessage
	failOn   string
	failures int
	closed   bool
}

func (f *fakeProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	key, _ := msg.Key.Encode()
	if string(key) == f.failOn && f.failures > 0 {
		f.failures--
		return 0, 0, errors.New("leader not available")
	}
	f.sent = append(f.sent, msg)
	return 0, int64(len(f.sent) - 1), nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func item(id string, importance float64) *news.ClassifiedItem {
	return &news.ClassifiedItem{
		Item:       &news.NormalizedItem{RawItem: news.RawItem{Title: "Title " + id, URL: "https://example.com/" + id}, ID: id},
		Category:   news.CategoryNews,
		Tags:       news.EmptyTags(),
		Importance: importance,
	}
}

func TestPublish(t *testing.T) {
	fake := &fakeProducer{failOn: "b", failures: 1}
	p := NewWithProducer(fake, "music-news.ranked", retry.RetryConfig{MaxAttempts: 2}, logger.Discard())

	n, err := p.Publish(context.Background(), "run-1", []*news.ClassifiedItem{item("a", 0.9), item("b", 0.8)})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if n != 2 || len(fake.sent) != 2 {
		t.Fatalf("published %d (%d sent), want 2", n, len(fake.sent))
	}

	msg := fake.sent[1]
	if msg.Topic != "music-news.ranked" {
		t.Errorf("topic = %q", msg.Topic)
	}
	key, _ := msg.Key.Encode()
	if string(key) != "b" {
		t.Errorf("key = %q, want item ID", key)
	}
	value, _ := msg.Value.Encode()
	var decoded Message
	if err := json.Unmarshal(value, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.RunID != "run-1" || decoded.Rank != 2 || decoded.ID != "b" || decoded.Importance != 0.8 {
		t.Errorf("unexpected payload: %+v", decoded)
	}

	if err := p.Close(); err != nil || !fake.closed {
		t.Errorf("Close did not reach the producer")
	}
}

func TestPublish_StopsOnFailure(t *testing.T) {
	fake := &fakeProducer{failOn: "b", failures: 10}
	p := NewWithProducer(fake, "t", retry.RetryConfig{MaxAttempts: 2}, logger.Discard())

	n, err := p.Publish(context.Background(), "run-2", []*news.ClassifiedItem{item("a", 0.9), item("b", 0.8), item("c", 0.7)})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if n != 1 {
		t.Errorf("published %d before failing, want 1", n)
	}
}
