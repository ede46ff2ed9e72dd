// Package sqlsource builds datasets from relational parameter tables. One
// query returns long-form rows (tech, node, carrier, parameter, value); an
// optional second query returns config key/value pairs.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/adapters"
	"github.com/validus/validus-go/dataset"
)

// ColumnMap names the result columns holding each coordinate. Empty entries
// take the defaults; Carrier may be mapped to nothing for carrier-free
// tables.
type ColumnMap struct {
	Tech    string `json:"tech" yaml:"tech"`
	Node    string `json:"node" yaml:"node"`
	Carrier string `json:"carrier" yaml:"carrier"`
	Param   string `json:"param" yaml:"param"`
	Value   string `json:"value" yaml:"value"`
}

// Config holds SQL source configuration.
type Config struct {
	Driver      string        `json:"driver" yaml:"driver"`
	DSN         string        `json:"dsn" yaml:"dsn"`
	Query       string        `json:"query" yaml:"query"`
	ConfigQuery string        `json:"config_query" yaml:"config_query"`
	Columns     ColumnMap     `json:"columns" yaml:"columns"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// Source loads a dataset from a SQL database.
type Source struct {
	config *Config
	db     *sql.DB
}

// NewSource validates the config and opens the database handle. The
// connection itself is established lazily on Load.
func NewSource(config *Config) (*Source, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Source{config: config, db: db}, nil
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}
	switch config.Driver {
	case "mysql", "postgres":
	case "":
		return fmt.Errorf("driver is required")
	default:
		return fmt.Errorf("unsupported driver %q", config.Driver)
	}
	if config.DSN == "" {
		return fmt.Errorf("dsn is required")
	}
	if config.Query == "" {
		return fmt.Errorf("query is required")
	}
	if config.Columns.Tech == "" {
		config.Columns.Tech = "tech"
	}
	if config.Columns.Node == "" {
		config.Columns.Node = "node"
	}
	if config.Columns.Carrier == "" {
		config.Columns.Carrier = "carrier"
	}
	if config.Columns.Param == "" {
		config.Columns.Param = "param"
	}
	if config.Columns.Value == "" {
		config.Columns.Value = "value"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return nil
}

// Load queries the parameter rows and assembles a dataset table.
func (s *Source) Load(ctx context.Context) (*dataset.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	b := dataset.NewBuilder()
	if err := s.loadParams(ctx, b); err != nil {
		return nil, err
	}
	if s.config.ConfigQuery != "" {
		if err := s.loadConfig(ctx, b); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func (s *Source) loadParams(ctx context.Context, b *dataset.Builder) error {
	rows, err := s.db.QueryContext(ctx, s.config.Query)
	if err != nil {
		return fmt.Errorf("parameter query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("parameter columns: %w", err)
	}
	idx := columnIndex(columns)
	techCol, ok := idx[s.config.Columns.Tech]
	if !ok {
		return fmt.Errorf("missing column %q", s.config.Columns.Tech)
	}
	paramCol, ok := idx[s.config.Columns.Param]
	if !ok {
		return fmt.Errorf("missing column %q", s.config.Columns.Param)
	}
	valueCol, ok := idx[s.config.Columns.Value]
	if !ok {
		return fmt.Errorf("missing column %q", s.config.Columns.Value)
	}
	nodeCol, hasNode := idx[s.config.Columns.Node]
	carrierCol, hasCarrier := idx[s.config.Columns.Carrier]

	values := make([]interface{}, len(columns))
	for i := range values {
		values[i] = new(interface{})
	}

	for rows.Next() {
		if err := rows.Scan(values...); err != nil {
			return fmt.Errorf("scan parameter row: %w", err)
		}

		tech := stringAt(values, techCol)
		param := stringAt(values, paramCol)
		if tech == "" || param == "" {
			continue
		}
		var node, carrier string
		if hasNode {
			node = stringAt(values, nodeCol)
		}
		if hasCarrier {
			carrier = stringAt(values, carrierCol)
		}
		value, ok := cellValue(*(values[valueCol].(*interface{})))
		if !ok {
			continue
		}

		if node != "" {
			b.Allow(node, tech)
		}
		if node == "" && carrier == "" {
			b.SetDefault(tech, param, value)
		} else if err := b.Set(validus.Entity{Tech: tech, Node: node, Carrier: carrier}, param, value); err != nil {
			return fmt.Errorf("parameter row: %w", err)
		}
	}
	return rows.Err()
}

func (s *Source) loadConfig(ctx context.Context, b *dataset.Builder) error {
	rows, err := s.db.QueryContext(ctx, s.config.ConfigQuery)
	if err != nil {
		return fmt.Errorf("config query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var raw interface{}
		if err := rows.Scan(&key, &raw); err != nil {
			return fmt.Errorf("scan config row: %w", err)
		}
		if value, ok := cellValue(raw); ok {
			b.SetConfig(key, value)
		}
	}
	return rows.Err()
}

// Close closes the database handle.
func (s *Source) Close() error { return s.db.Close() }

func columnIndex(columns []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, name := range columns {
		idx[strings.ToLower(name)] = i
	}
	return idx
}

func stringAt(values []interface{}, i int) string {
	raw := *(values[i].(*interface{}))
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// cellValue converts a scanned cell into a parameter value. Text cells are
// re-parsed so that drivers returning everything as bytes still yield typed
// values, and "inf"/"-inf" become the distinguished infinity.
func cellValue(raw interface{}) (validus.Value, bool) {
	switch v := raw.(type) {
	case nil:
		return validus.Value{}, false
	case []byte:
		return parseScalar(string(v))
	case string:
		return parseScalar(v)
	default:
		return validus.ValueOf(raw)
	}
}

func parseScalar(s string) (validus.Value, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return validus.Value{}, false
	case "inf", "+inf", ".inf":
		return validus.Inf(), true
	case "-inf", "-.inf":
		return validus.NegInf(), true
	case "true":
		return validus.Bool(true), true
	case "false":
		return validus.Bool(false), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return validus.Number(f), true
	}
	return validus.Str(s), true
}

// Factory creates SQL sources from generic config.
type Factory struct{}

func (f *Factory) Create(config adapters.SourceConfig) (adapters.DatasetSource, error) {
	sqlConfig := &Config{
		Driver:      adapters.StringOption(config.Config, "driver"),
		DSN:         adapters.StringOption(config.Config, "dsn"),
		Query:       adapters.StringOption(config.Config, "query"),
		ConfigQuery: adapters.StringOption(config.Config, "config_query"),
		Timeout:     adapters.DurationOption(config.Config, "timeout"),
	}
	if columns, ok := config.Config["columns"].(map[string]interface{}); ok {
		sqlConfig.Columns = ColumnMap{
			Tech:    adapters.StringOption(columns, "tech"),
			Node:    adapters.StringOption(columns, "node"),
			Carrier: adapters.StringOption(columns, "carrier"),
			Param:   adapters.StringOption(columns, "param"),
			Value:   adapters.StringOption(columns, "value"),
		}
	}
	return NewSource(sqlConfig)
}

func (f *Factory) ValidateConfig(config adapters.SourceConfig) error {
	for _, key := range []string{"driver", "dsn", "query"} {
		if adapters.StringOption(config.Config, key) == "" {
			return fmt.Errorf("%s is required for sql source", key)
		}
	}
	return nil
}

func init() {
	adapters.RegisterSourceType("sql", &Factory{})
}
