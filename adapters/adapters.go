// Package adapters connects validation to external systems: dataset sources
// build tables from files, databases and object storage, and report sinks
// publish completed runs to message brokers.
package adapters

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/validus/validus-go/dataset"
)

// DatasetSource loads a dataset table from an external system.
type DatasetSource interface {
	Load(ctx context.Context) (*dataset.Table, error)
	Close() error
}

// SourceConfig is the generic configuration block for a dataset source, as
// it appears in daemon config files.
type SourceConfig struct {
	Name    string                 `json:"name" yaml:"name"`
	Type    string                 `json:"type" yaml:"type"`
	Config  map[string]interface{} `json:"config" yaml:"config"`
	BaseDir string                 `json:"-" yaml:"-"`
}

// SourceFactory constructs dataset sources of one type.
type SourceFactory interface {
	Create(config SourceConfig) (DatasetSource, error)
	ValidateConfig(config SourceConfig) error
}

// SourceRegistry maps source type names to factories.
type SourceRegistry struct {
	mu        sync.RWMutex
	factories map[string]SourceFactory
}

// NewSourceRegistry creates an empty registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{factories: make(map[string]SourceFactory)}
}

// Register adds a factory under a type name.
func (r *SourceRegistry) Register(sourceType string, factory SourceFactory) error {
	if sourceType == "" {
		return fmt.Errorf("source type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("source factory cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[sourceType] = factory
	return nil
}

// Create validates the config and builds a source of the configured type.
func (r *SourceRegistry) Create(config SourceConfig) (DatasetSource, error) {
	r.mu.RLock()
	factory := r.factories[config.Type]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unknown source type: %s", config.Type)
	}
	if err := factory.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config for %s: %w", config.Type, err)
	}
	return factory.Create(config)
}

// Types returns the registered type names, sorted.
func (r *SourceRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

var defaultRegistry = NewSourceRegistry()

// RegisterSourceType registers a source factory globally.
func RegisterSourceType(sourceType string, factory SourceFactory) error {
	return defaultRegistry.Register(sourceType, factory)
}

// CreateSource builds a source from configuration using the global registry.
func CreateSource(config SourceConfig) (DatasetSource, error) {
	return defaultRegistry.Create(config)
}

// AvailableSourceTypes returns the globally registered source types.
func AvailableSourceTypes() []string {
	return defaultRegistry.Types()
}

// ResolvePath resolves a path relative to the source config's base directory.
func ResolvePath(config SourceConfig, path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) || config.BaseDir == "" {
		return path
	}
	return filepath.Join(config.BaseDir, path)
}

// StringOption reads a string from a generic config map.
func StringOption(config map[string]interface{}, key string) string {
	if v, ok := config[key].(string); ok {
		return v
	}
	return ""
}

// BoolOption reads a bool from a generic config map.
func BoolOption(config map[string]interface{}, key string) bool {
	v, _ := config[key].(bool)
	return v
}

// IntOption reads an int from a generic config map. YAML and JSON decoders
// disagree on integer types, so both are accepted.
func IntOption(config map[string]interface{}, key string) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// DurationOption reads a duration string from a generic config map.
func DurationOption(config map[string]interface{}, key string) time.Duration {
	v, ok := config[key].(string)
	if !ok {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
