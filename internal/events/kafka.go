package events

import (
    "context"
    "fmt"
    "time"

    "github.com/segmentio/kafka-go"
)

// Kafka writes events to a topic, keyed by scope so an entry's events stay ordered.
type Kafka struct {
    w *kafka.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
    return &Kafka{w: &kafka.Writer{
        Addr:         kafka.TCP(brokers...),
        Topic:        topic,
        Balancer:     &kafka.Hash{},
        RequiredAcks: kafka.RequireOne,
        MaxAttempts:  3,
        WriteTimeout: 10 * time.Second,
    }}
}

func (k *Kafka) Publish(ctx context.Context, ev Event) error {
    b, err := ev.payload()
    if err != nil {
        return err
    }
    msg := kafka.Message{Key: []byte(ev.Key()), Value: b, Time: ev.OccurredAt}
    if err := k.w.WriteMessages(ctx, msg); err != nil {
        return fmt.Errorf("kafka write %s: %w", k.w.Topic, err)
    }
    return nil
}

func (k *Kafka) Close() error { return k.w.Close() }
