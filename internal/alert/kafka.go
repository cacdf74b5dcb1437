package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pulsewatch/pulsewatch/internal/config"
	"github.com/pulsewatch/pulsewatch/internal/metric"
)

const kafkaWriteTimeout = 10 * time.Second

// Kafka publishes alerts as JSON messages to a topic, keyed by series name so
// all alerts for one series land on the same partition in order.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka creates a Kafka notifier with a single synchronous writer.
func NewKafka(cfg config.KafkaConfig) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Compression:  kafka.Snappy,
			WriteTimeout: kafkaWriteTimeout,
		},
	}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Notify(ctx context.Context, a metric.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("%w: serialize alert: %v", ErrDeliveryFailed, err)
	}

	msg := kafka.Message{
		Key:   []byte(a.Series),
		Value: data,
		Time:  a.FiredAt,
		Headers: []kafka.Header{
			{Key: "alert_id", Value: []byte(a.ID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: kafka publish: %v", ErrDeliveryFailed, err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.writer.Close() }
