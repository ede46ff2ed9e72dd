// Package s3 loads model datasets from S3-compatible object storage. YAML
// and JSON documents hold whole models; parquet objects hold long-form
// parameter tables.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/parquet-go/parquet-go"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/adapters"
	"github.com/validus/validus-go/dataset"
)

// Config holds S3 source configuration.
type Config struct {
	Region         string        `json:"region" yaml:"region"`
	Bucket         string        `json:"bucket" yaml:"bucket"`
	Key            string        `json:"key" yaml:"key"`
	Format         string        `json:"format" yaml:"format"` // "auto", "yaml", "json", or "parquet"
	Endpoint       string        `json:"endpoint" yaml:"endpoint"`
	ForcePathStyle bool          `json:"force_path_style" yaml:"force_path_style"`
	AccessKey      string        `json:"access_key" yaml:"access_key"`
	SecretKey      string        `json:"secret_key" yaml:"secret_key"`
	SessionToken   string        `json:"session_token" yaml:"session_token"`
	MaxObjectBytes int64         `json:"max_object_bytes" yaml:"max_object_bytes"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
}

// Source fetches one model object per Load.
type Source struct {
	config *Config
	client *s3.Client
}

// NewSource validates the configuration.
func NewSource(config *Config) (*Source, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &Source{config: config}, nil
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}
	if config.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if config.Key == "" {
		return fmt.Errorf("key is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	switch config.Format {
	case "", "auto", "yaml", "json", "parquet":
	default:
		return fmt.Errorf("format must be auto, yaml, json or parquet")
	}
	if config.Format == "" {
		config.Format = "auto"
	}
	if config.MaxObjectBytes == 0 {
		config.MaxObjectBytes = 50 * 1024 * 1024
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return nil
}

// connect builds the S3 client, honoring static credentials and custom
// endpoints for MinIO-style deployments.
func (s *Source) connect(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.config.Region),
	}
	if s.config.AccessKey != "" && s.config.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(
			s.config.AccessKey,
			s.config.SecretKey,
			s.config.SessionToken,
		)
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	s.client = s3.NewFromConfig(cfg, func(options *s3.Options) {
		options.UsePathStyle = s.config.ForcePathStyle
		if s.config.Endpoint != "" {
			options.BaseEndpoint = aws.String(s.config.Endpoint)
		}
	})
	return nil
}

// Load fetches the object and builds its dataset table.
func (s *Source) Load(ctx context.Context) (*dataset.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.config.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.config.Bucket, s.config.Key, err)
	}
	defer resp.Body.Close()

	payload, err := readAll(resp.Body, s.config.MaxObjectBytes)
	if err != nil {
		return nil, err
	}

	switch s.resolveFormat() {
	case "json":
		return dataset.LoadJSON(payload)
	case "parquet":
		return decodeParquet(payload)
	default:
		return dataset.LoadYAML(payload)
	}
}

func (s *Source) resolveFormat() string {
	if s.config.Format != "auto" {
		return s.config.Format
	}
	switch strings.ToLower(path.Ext(s.config.Key)) {
	case ".json":
		return "json"
	case ".parquet":
		return "parquet"
	default:
		return "yaml"
	}
}

// Close is a no-op; the client holds no connections between loads.
func (s *Source) Close() error { return nil }

// paramRow is the long-form parquet schema: one row per parameter cell.
type paramRow struct {
	Tech    string  `parquet:"tech"`
	Node    string  `parquet:"node,optional"`
	Carrier string  `parquet:"carrier,optional"`
	Param   string  `parquet:"param"`
	Value   float64 `parquet:"value"`
}

func decodeParquet(payload []byte) (*dataset.Table, error) {
	reader := parquet.NewGenericReader[paramRow](bytes.NewReader(payload))
	defer reader.Close()

	b := dataset.NewBuilder()
	batch := make([]paramRow, 256)
	for {
		n, err := reader.Read(batch)
		for i := 0; i < n; i++ {
			row := batch[i]
			if row.Tech == "" || row.Param == "" {
				continue
			}
			if row.Node != "" {
				b.Allow(row.Node, row.Tech)
			}
			value := validus.Number(row.Value)
			if row.Node == "" && row.Carrier == "" {
				b.SetDefault(row.Tech, row.Param, value)
			} else if err := b.Set(validus.Entity{Tech: row.Tech, Node: row.Node, Carrier: row.Carrier}, row.Param, value); err != nil {
				return nil, fmt.Errorf("parquet row: %w", err)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet: %w", err)
		}
	}
	return b.Build(), nil
}

func readAll(reader io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(reader)
	}
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("object exceeds max_object_bytes")
	}
	return data, nil
}

// Factory creates S3 sources from generic config.
type Factory struct{}

func (f *Factory) Create(config adapters.SourceConfig) (adapters.DatasetSource, error) {
	s3Config := &Config{
		Region:         adapters.StringOption(config.Config, "region"),
		Bucket:         adapters.StringOption(config.Config, "bucket"),
		Key:            adapters.StringOption(config.Config, "key"),
		Format:         adapters.StringOption(config.Config, "format"),
		Endpoint:       adapters.StringOption(config.Config, "endpoint"),
		ForcePathStyle: adapters.BoolOption(config.Config, "force_path_style"),
		AccessKey:      adapters.StringOption(config.Config, "access_key"),
		SecretKey:      adapters.StringOption(config.Config, "secret_key"),
		SessionToken:   adapters.StringOption(config.Config, "session_token"),
		MaxObjectBytes: int64(adapters.IntOption(config.Config, "max_object_bytes")),
		Timeout:        adapters.DurationOption(config.Config, "timeout"),
	}
	return NewSource(s3Config)
}

func (f *Factory) ValidateConfig(config adapters.SourceConfig) error {
	if adapters.StringOption(config.Config, "bucket") == "" {
		return fmt.Errorf("bucket is required for s3 source")
	}
	if adapters.StringOption(config.Config, "key") == "" {
		return fmt.Errorf("key is required for s3 source")
	}
	return nil
}

func init() {
	adapters.RegisterSourceType("s3", &Factory{})
}
