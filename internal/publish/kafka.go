// Package publish sends ranked items to Kafka, one JSON message per item
// keyed by item ID.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/retry"
)

// Message is the payload of one published item.
type Message struct {
	RunID       string              `json:"run_id"`
	Rank        int                 `json:"rank"`
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	URL         string              `json:"url"`
	Source      string              `json:"source"`
	Category    news.Category       `json:"category"`
	Tags        news.Tags           `json:"tags"`
	Importance  float64             `json:"importance"`
	Trending    *float64            `json:"trending,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	PublishedAt *time.Time          `json:"published_at,omitempty"`
	Breakdown   news.ScoreBreakdown `json:"breakdown"`
	Fallback    bool                `json:"fallback,omitempty"`
}

// Producer is implemented by sarama.SyncProducer.
type Producer interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	Close() error
}

// Publisher writes ranked items to a Kafka topic.
type Publisher struct {
	producer Producer
	topic    string
	retry    retry.RetryConfig
	logger   *slog.Logger
}

// New connects a sync producer to cfg.Brokers.
func New(cfg config.KafkaConfig, rc retry.RetryConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are not set")
	}
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Retry.Max = 0 // retried by WithRetry

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewWithProducer(producer, cfg.Topic, rc, logger), nil
}

func NewWithProducer(p Producer, topic string, rc retry.RetryConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		producer: p,
		topic:    topic,
		retry:    rc,
		logger:   logger.With("component", "publish"),
	}
}

// Publish sends items in rank order and returns how many were delivered.
// It stops at the first item that still fails after retries.
func (p *Publisher) Publish(ctx context.Context, runID string, items []*news.ClassifiedItem) (int, error) {
	sent := 0
	for i, it := range items {
		payload, err := json.Marshal(newMessage(runID, i+1, it))
		if err != nil {
			return sent, fmt.Errorf("failed to marshal item %s: %w", it.Item.ID, err)
		}
		msg := &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(it.Item.ID),
			Value: sarama.ByteEncoder(payload),
		}

		var partition int32
		var offset int64
		err = retry.WithRetry(ctx, p.retry, func() error {
			var err error
			partition, offset, err = p.producer.SendMessage(msg)
			return err
		})
		if err != nil {
			return sent, fmt.Errorf("failed to publish item %s: %w", it.Item.ID, err)
		}
		sent++
		p.logger.Debug("item published", "item", it.Item.ID, "partition", partition, "offset", offset)
	}
	p.logger.Info("ranked items published", "topic", p.topic, "count", sent)
	return sent, nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}

func newMessage(runID string, rank int, it *news.ClassifiedItem) Message {
	n := it.Item
	return Message{
		RunID:       runID,
		Rank:        rank,
		ID:          n.ID,
		Title:       n.Title,
		URL:         n.URL,
		Source:      n.Source,
		Category:    it.Category,
		Tags:        it.Tags,
		Importance:  it.Importance,
		Trending:    it.Trending,
		Summary:     it.Summary,
		PublishedAt: n.PublishedAt,
		Breakdown:   it.Breakdown,
		Fallback:    it.Fallback,
	}
}
