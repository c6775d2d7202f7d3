package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes every record as JSON, keyed by symbol so one symbol's
// records land on one partition in order.
type KafkaSink struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
		timeout: 5 * time.Second,
	}
}

func (k *KafkaSink) Write(r Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record %d: %w", r.Seq, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(r.Symbol),
		Value: value,
		Time:  r.Time,
	})
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
