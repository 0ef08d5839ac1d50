package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketing-api/internal/common/logger"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON events to a single topic.
type Producer struct {
	writer MessageWriter
	topic  string
	logger logger.Logger
}

func NewProducer(brokers []string, topic string, log logger.Logger) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}, topic, log)
}

func NewProducerWithWriter(w MessageWriter, topic string, log logger.Logger) *Producer {
	return &Producer{writer: w, topic: topic, logger: log}
}

// Send marshals event and writes it under key. Events with the same key land
// on the same partition.
func (p *Producer) Send(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	p.logger.Debug("Sent event to Kafka", map[string]interface{}{
		"topic": p.topic,
		"key":   key,
	})
	return nil
}

func (p *Producer) Topic() string {
	return p.topic
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
