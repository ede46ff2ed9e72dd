package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	kafkasink "github.com/validus/validus-go/adapters/kafka"
	"github.com/validus/validus-go/runtime"
)

type daemonConfig struct {
	Server   serverConfig          `yaml:"server" json:"server"`
	Auth     authConfig            `yaml:"auth" json:"auth"`
	Storage  storageConfig         `yaml:"storage" json:"storage"`
	Rulesets runtime.ManagerConfig `yaml:"rulesets" json:"rulesets"`
	Sinks    sinksConfig           `yaml:"sinks" json:"sinks"`
	Workers  int                   `yaml:"workers" json:"workers"`
}

type serverConfig struct {
	Addr            string `yaml:"addr" json:"addr"`
	ReadTimeout     string `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

type authConfig struct {
	Token     string `yaml:"token" json:"token"`
	RateLimit int    `yaml:"rate_limit" json:"rate_limit"`
	RateBurst int    `yaml:"rate_burst" json:"rate_burst"`
}

type storageConfig struct {
	Backend  string                      `yaml:"backend" json:"backend"` // memory, postgres or redis
	Postgres runtime.PostgresStoreConfig `yaml:"postgres" json:"postgres"`
	Redis    runtime.RedisStoreConfig    `yaml:"redis" json:"redis"`
}

type sinksConfig struct {
	Kafka *kafkasink.Config `yaml:"kafka" json:"kafka"`
	AMQP  *amqpSinkConfig   `yaml:"amqp" json:"amqp"`
}

// amqpSinkConfig mirrors the amqp adapter config so the daemon config file
// stays self-contained.
type amqpSinkConfig struct {
	URL             string `yaml:"url" json:"url"`
	Exchange        string `yaml:"exchange" json:"exchange"`
	ExchangeType    string `yaml:"exchange_type" json:"exchange_type"`
	ExchangeDeclare bool   `yaml:"exchange_declare" json:"exchange_declare"`
	RoutingKey      string `yaml:"routing_key" json:"routing_key"`
	Encoding        string `yaml:"encoding" json:"encoding"`
}

func loadDaemonConfig(path string) (*daemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &daemonConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config yaml: %w", err)
		}
	}
	return cfg, nil
}

// applyDaemonConfig layers file values under any flags the user set
// explicitly.
func applyDaemonConfig(cfg *daemonConfig, setFlags map[string]bool) {
	if cfg == nil {
		return
	}
	if cfg.Server.Addr != "" && !setFlags["addr"] {
		*listenAddr = cfg.Server.Addr
	}
	if cfg.Auth.Token != "" && !setFlags["token"] {
		*authToken = cfg.Auth.Token
	}
	if cfg.Rulesets.Directory != "" && !setFlags["rules-dir"] {
		*rulesDir = cfg.Rulesets.Directory
	}
	if cfg.Workers > 0 && !setFlags["workers"] {
		*workers = cfg.Workers
	}
	if cfg.Storage.Backend != "" && !setFlags["storage"] {
		*storageBackend = cfg.Storage.Backend
	}
}

func parseTimeout(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return d, nil
}
