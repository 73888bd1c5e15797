package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaOptions configures a KafkaSink.
type KafkaOptions struct {
	// Brokers is the list of bootstrap brokers.
	Brokers []string
	// Topic receives one message per record.
	Topic string
	// BatchTimeout bounds how long messages are buffered before a write. Defaults to 10 milliseconds.
	BatchTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes each record as a JSON message keyed by plant name, so records of one plant stay
// ordered within a partition.
type KafkaSink struct {
	writer messageWriter
	topic  string
}

// NewKafkaSink creates a synchronous Kafka writer for opts.Topic.
func NewKafkaSink(opts KafkaOptions) (*KafkaSink, error) {
	if len(opts.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers")
	}
	if opts.Topic == "" {
		return nil, fmt.Errorf("kafka: empty topic")
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 10 * time.Millisecond
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(opts.Brokers...),
		Topic:                  opts.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           opts.BatchTimeout,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}

	return &KafkaSink{writer: w, topic: opts.Topic}, nil
}

func (s *KafkaSink) Name() string { return "kafka" }

// Publish writes rec to the topic.
func (s *KafkaSink) Publish(ctx context.Context, rec Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("%w: kafka: %w", ErrPublish, err)
	}

	msg := kafka.Message{
		Key:   []byte(rec.Plant),
		Value: data,
		Time:  rec.Time,
		Headers: []kafka.Header{
			{Key: "record-id", Value: []byte(rec.ID)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: kafka topic %s: %w", ErrPublish, s.topic, err)
	}

	return nil
}

// Close flushes pending messages and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
