package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig holds the brokers and topic the message is published to.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string   `mapstructure:"topic" yaml:"topic"`
}

// messageWriter is the subset of *kafka.Writer the notifier needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes the message as one JSON record keyed by a fresh UUID.
type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafka creates a Kafka notifier writing synchronously with RequireOne acks.
func NewKafka(cfg KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		now: time.Now,
	}, nil
}

// Send implements Notifier.
func (k *KafkaNotifier) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	record := kafka.Message{
		Key:   []byte(uuid.NewString()),
		Value: value,
		Time:  k.now(),
	}
	if err := k.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close releases the underlying writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
