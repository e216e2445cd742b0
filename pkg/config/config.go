package config

import (
	"fmt"
	"strings"
	"time"
)

// Insert failure policy constants
const (
	// InsertFailureSuppress logs a failed single insert and reports success to the caller
	InsertFailureSuppress = "suppress"
	// InsertFailurePropagate returns a failed single insert to the caller
	InsertFailurePropagate = "propagate"
)

// DefaultEnvPrefix is used when the loader is given an empty prefix.
const DefaultEnvPrefix = "MONGOREPO"

// Config is the repository configuration.
type Config struct {
	// Host is the MongoDB connection string, e.g. mongodb://localhost:27017.
	Host     string `mapstructure:"host"`
	Database string `mapstructure:"database"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// OperationTimeout bounds every store call when the caller's context has
	// no deadline. Zero leaves the driver defaults in place.
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`

	InsertFailurePolicy string `mapstructure:"insert_failure_policy"` // suppress, propagate

	// Collections maps a Go type name to the collection storing it.
	Collections map[string]string `mapstructure:"collections"`

	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// TracingConfig configures OTLP export of store command spans
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"` // host:port of the OTLP gRPC collector
	SampleRate  float64 `mapstructure:"sample_rate"`
	Environment string  `mapstructure:"environment"`
	Insecure    bool    `mapstructure:"insecure"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:      10 * time.Second,
		InsertFailurePolicy: InsertFailureSuppress,
		Collections:         map[string]string{},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			SampleRate: 1,
			Insecure:   true,
		},
	}
}

// CollectionFor returns the configured collection for typeName, if any.
// Keys match case-insensitively since viper lowercases map keys read from
// files and the environment.
func (c *Config) CollectionFor(typeName string) (string, bool) {
	if c == nil || len(c.Collections) == 0 {
		return "", false
	}
	if name, ok := c.Collections[typeName]; ok && name != "" {
		return name, true
	}
	for key, name := range c.Collections {
		if strings.EqualFold(key, typeName) && name != "" {
			return name, true
		}
	}
	return "", false
}

// ConfigurationError reports a missing or invalid configuration key.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}
