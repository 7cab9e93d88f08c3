package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"feedback-portal/pkg/utils"

	"github.com/segmentio/kafka-go"
)

// Delivery is the outcome of one logical send.
type Delivery struct {
	Kind     Kind      `json:"kind"`
	To       string    `json:"to"`
	Subject  string    `json:"subject,omitempty"`
	Result   string    `json:"result"`
	Attempts int       `json:"attempts"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

const (
	ResultSent     = "sent"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
	ResultLimited  = "limited"
)

type AuditSink interface {
	Record(ctx context.Context, d Delivery) error
	Close() error
}

type NopAuditSink struct{}

func (NopAuditSink) Record(context.Context, Delivery) error { return nil }
func (NopAuditSink) Close() error                           { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaAuditSink publishes deliveries as JSON keyed by kind.
type KafkaAuditSink struct {
	writer messageWriter
}

func NewKafkaAuditSink(config utils.KafkaConfig) (*KafkaAuditSink, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if config.AuditTopic == "" {
		return nil, fmt.Errorf("audit topic is required")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.AuditTopic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: time.Second,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return &KafkaAuditSink{writer: w}, nil
}

func (s *KafkaAuditSink) Record(ctx context.Context, d Delivery) error {
	value, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(d.Kind),
		Value: value,
		Time:  d.At,
	}); err != nil {
		return fmt.Errorf("write delivery: %w", err)
	}
	return nil
}

func (s *KafkaAuditSink) Close() error {
	return s.writer.Close()
}
