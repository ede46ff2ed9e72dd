// Package files loads model datasets from local files and watches them for
// changes.
package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/validus/validus-go/adapters"
	"github.com/validus/validus-go/dataset"
)

// Source loads a model dataset from a YAML or JSON file.
type Source struct {
	path string
}

// NewSource creates a file source for the given model path.
func NewSource(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}
	return &Source{path: path}, nil
}

// Load reads and parses the model file. The format follows the extension;
// anything that is not .json parses as YAML.
func (s *Source) Load(ctx context.Context) (*dataset.Table, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(s.path), ".json") {
		return dataset.LoadJSON(data)
	}
	return dataset.LoadYAML(data)
}

// Close is a no-op.
func (s *Source) Close() error { return nil }

// Factory creates file sources from generic config.
type Factory struct{}

func (f *Factory) Create(config adapters.SourceConfig) (adapters.DatasetSource, error) {
	path := adapters.ResolvePath(config, adapters.StringOption(config.Config, "path"))
	return NewSource(path)
}

func (f *Factory) ValidateConfig(config adapters.SourceConfig) error {
	if adapters.StringOption(config.Config, "path") == "" {
		return fmt.Errorf("path is required for file source")
	}
	return nil
}

func init() {
	adapters.RegisterSourceType("file", &Factory{})
}
