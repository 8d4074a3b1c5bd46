package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"photopass/internal/config"
	"photopass/internal/domain"
	"photopass/internal/port"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type publisher struct {
	writer messageWriter
}

// NewPublisher creates an EventPublisher writing upload events to the
// configured topic, keyed by object key.
func NewPublisher(cfg *config.KafkaConfig) port.EventPublisher {
	return newPublisher(&kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	})
}

func newPublisher(w messageWriter) *publisher {
	return &publisher{writer: w}
}

func (p *publisher) PublishUploaded(ctx context.Context, event domain.UploadEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding upload event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *publisher) Close() error {
	return p.writer.Close()
}
