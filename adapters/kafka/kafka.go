// Package kafka publishes validation runs to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/validus/validus-go/report"
	"github.com/validus/validus-go/runtime"
)

// Config holds Kafka sink configuration.
type Config struct {
	Brokers      []string      `json:"brokers" yaml:"brokers"`
	Topic        string        `json:"topic" yaml:"topic"`
	PerEntry     bool          `json:"per_entry" yaml:"per_entry"`
	BatchTimeout time.Duration `json:"batch_timeout" yaml:"batch_timeout"`
}

// Sink writes runs to Kafka. With PerEntry set each report entry becomes its
// own message; otherwise one message carries the whole run. Messages are
// keyed by run ID so all output of a run lands on one partition, in order.
type Sink struct {
	config *Config
	writer *kafka.Writer
}

// entryMessage is the per-entry payload shape.
type entryMessage struct {
	RunID     string       `json:"run_id"`
	Ruleset   string       `json:"ruleset"`
	StartedAt time.Time    `json:"started_at"`
	Entry     report.Entry `json:"entry"`
}

// NewSink creates a Kafka sink.
func NewSink(config *Config) (*Sink, error) {
	if config == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if config.BatchTimeout == 0 {
		config.BatchTimeout = time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: config.BatchTimeout,
	}
	return &Sink{config: config, writer: writer}, nil
}

// Publish writes the run to the topic.
func (s *Sink) Publish(ctx context.Context, run *runtime.Run) error {
	messages, err := s.encode(run)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Sink) encode(run *runtime.Run) ([]kafka.Message, error) {
	if !s.config.PerEntry {
		data, err := json.Marshal(run)
		if err != nil {
			return nil, fmt.Errorf("marshal run: %w", err)
		}
		return []kafka.Message{{Key: []byte(run.ID), Value: data, Time: run.StartedAt}}, nil
	}

	entries := run.Report.Entries()
	messages := make([]kafka.Message, 0, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(entryMessage{
			RunID:     run.ID,
			Ruleset:   run.Ruleset,
			StartedAt: run.StartedAt,
			Entry:     entry,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal entry: %w", err)
		}
		messages = append(messages, kafka.Message{Key: []byte(run.ID), Value: data, Time: run.StartedAt})
	}
	return messages, nil
}

// Close flushes and closes the writer.
func (s *Sink) Close() error { return s.writer.Close() }
