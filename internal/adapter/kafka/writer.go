package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/eruvierda/weather-map-leaflet/internal/config"
	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/eruvierda/weather-map-leaflet/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes area results to a Kafka topic, one message per area.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured observation topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// LoadBatch serializes every result and publishes them in a single
// WriteMessages call. Messages are keyed by slug so each area stays on one partition.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.AreaResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish results: %w", err)
	}

	if w.metrics != nil {
		w.metrics.Published.Add(float64(len(msgs)))
	}
	w.logger.Info("results published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an AreaResult into a Kafka message.
func serializeToMessage(result domain.AreaResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize area result: %w", err)
	}
	key := result.Slug
	if key == "" {
		key = domain.PortSlug(result.AreaName)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(result.Status)},
			{Key: "kind", Value: []byte(result.Kind)},
			{Key: "timestamp", Value: []byte(result.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
