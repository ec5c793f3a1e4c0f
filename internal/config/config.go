// Package config loads the simulation's key/value configuration.
//
// A configuration is a flat YAML mapping. Components that only need one
// setting, such as sink resolution, read it through Source; the launcher
// decodes the whole mapping into Config.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Key names.
const (
	KeyResultBulkInsert = "resultBulkInsert"
	KeyResultBatchSize  = "resultBatchSize"
)

// Source is a read-only key/value lookup.
type Source interface {
	Lookup(key string) (string, bool)
}

// Values is an in-memory Source.
type Values map[string]any

// Lookup returns the value of key rendered as a string.
// Nested mappings and lists are not addressable and report absent.
func (v Values) Lookup(key string) (string, bool) {
	raw, ok := v[key]
	if !ok || raw == nil {
		return "", false
	}
	switch x := raw.(type) {
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	default:
		return "", false
	}
}

// Redis configures the redis result sink.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Config is the typed view of a configuration file.
type Config struct {
	ResultBulkInsert string `mapstructure:"resultBulkInsert"`
	ResultBatchSize  int    `mapstructure:"resultBatchSize"`
	Database         string `mapstructure:"database"`
	Redis            Redis  `mapstructure:"redis"`
	LogLevel         string `mapstructure:"logLevel"`
	MetricsAddr      string `mapstructure:"metricsAddr"`
}

// Source returns the settings components resolve by key. An unset sink
// name is omitted so resolution sees it as absent.
func (c Config) Source() Values {
	v := Values{KeyResultBatchSize: c.ResultBatchSize}
	if c.ResultBulkInsert != "" {
		v[KeyResultBulkInsert] = c.ResultBulkInsert
	}
	return v
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		ResultBatchSize: 1000,
		Database:        "riskflow.db",
		Redis:           Redis{Addr: "localhost:6379", Prefix: "riskflow"},
		LogLevel:        "info",
	}
}

// Parse decodes YAML data into raw values and the typed Config.
// Keys absent from data keep their Defaults value.
func Parse(data []byte) (Values, Config, error) {
	values := Values{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg := Defaults()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return nil, Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := dec.Decode(map[string]any(values)); err != nil {
		return nil, Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ResultBatchSize < 0 {
		return nil, Config{}, fmt.Errorf("parse config: %s must not be negative, got %d", KeyResultBatchSize, cfg.ResultBatchSize)
	}
	return values, cfg, nil
}

// Load reads and parses a configuration file. An empty path yields the defaults.
func Load(path string) (Values, Config, error) {
	if path == "" {
		return Values{}, Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}
