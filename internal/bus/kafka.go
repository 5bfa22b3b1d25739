package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka-backed bus.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers" yaml:"brokers"`
	Topic           string        `mapstructure:"topic" yaml:"topic"`
	GroupID         string        `mapstructure:"group_id" yaml:"group_id,omitempty"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset" yaml:"auto_offset_reset,omitempty"` // earliest | latest
	BatchTimeout    time.Duration `mapstructure:"batch_timeout" yaml:"batch_timeout,omitempty"`
}

func (c KafkaConfig) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("brokers is required")
	}
	if c.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	return nil
}

// KafkaPublisher writes each message as one Kafka record.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for cfg.Topic.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 10 * time.Millisecond
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           batchTimeout,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg []byte) error {
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: msg}); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaSubscriber reads records from cfg.Topic.
type KafkaSubscriber struct {
	reader *kafka.Reader
}

// NewKafkaSubscriber creates a subscriber. Without a group id the reader
// consumes partition 0 directly.
func NewKafkaSubscriber(cfg KafkaConfig) (*KafkaSubscriber, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var startOffset int64
	switch cfg.AutoOffsetReset {
	case "earliest":
		startOffset = kafka.FirstOffset
	default:
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		MaxWait:     500 * time.Millisecond,
	})
	return &KafkaSubscriber{reader: reader}, nil
}

func (s *KafkaSubscriber) Receive(ctx context.Context) ([]byte, error) {
	m, err := s.reader.ReadMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("kafka receive: %w", err)
	}
	return m.Value, nil
}

func (s *KafkaSubscriber) Close() error {
	return s.reader.Close()
}
