// Package amqp publishes validation runs to a RabbitMQ exchange.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/validus/validus-go/runtime"
)

// Config holds AMQP sink configuration.
type Config struct {
	URL             string `json:"url" yaml:"url"`
	Exchange        string `json:"exchange" yaml:"exchange"`
	ExchangeType    string `json:"exchange_type" yaml:"exchange_type"`
	ExchangeDeclare bool   `json:"exchange_declare" yaml:"exchange_declare"`
	RoutingKey      string `json:"routing_key" yaml:"routing_key"`
	Encoding        string `json:"encoding" yaml:"encoding"` // "json" or "protobuf"
}

// Sink publishes each run as one message on an exchange. The protobuf
// encoding wraps the run in a structpb.Struct for consumers that speak
// proto; json is the default.
type Sink struct {
	config  *Config
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
}

// NewSink connects to the broker and prepares the exchange.
func NewSink(config *Config) (*Sink, error) {
	if config == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if config.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if config.Exchange == "" {
		return nil, fmt.Errorf("exchange is required")
	}
	if config.ExchangeType == "" {
		config.ExchangeType = "topic"
	}
	if config.RoutingKey == "" {
		config.RoutingKey = "validus.runs"
	}
	switch config.Encoding {
	case "":
		config.Encoding = "json"
	case "json", "protobuf":
	default:
		return nil, fmt.Errorf("encoding must be json or protobuf")
	}

	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if config.ExchangeDeclare {
		err := channel.ExchangeDeclare(
			config.Exchange,
			config.ExchangeType,
			true,  // durable
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("declare exchange: %w", err)
		}
	}

	return &Sink{config: config, conn: conn, channel: channel}, nil
}

// Publish sends the run to the exchange.
func (s *Sink) Publish(ctx context.Context, run *runtime.Run) error {
	body, contentType, err := encodeRun(run, s.config.Encoding)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.channel.PublishWithContext(ctx,
		s.config.Exchange,
		s.config.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: contentType,
			MessageId:   run.ID,
			Timestamp:   run.StartedAt,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish run %s: %w", run.ID, err)
	}
	return nil
}

func encodeRun(run *runtime.Run, encoding string) ([]byte, string, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return nil, "", fmt.Errorf("marshal run: %w", err)
	}
	if encoding != "protobuf" {
		return data, "application/json", nil
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, "", fmt.Errorf("decode run: %w", err)
	}
	structData, err := structpb.NewStruct(generic)
	if err != nil {
		return nil, "", fmt.Errorf("build struct payload: %w", err)
	}
	body, err := proto.Marshal(structData)
	if err != nil {
		return nil, "", fmt.Errorf("marshal struct payload: %w", err)
	}
	return body, "application/x-protobuf", nil
}

// Close closes the channel and connection.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			first = err
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
