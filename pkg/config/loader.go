package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
}

// ViperLoader implements Loader using Viper for configuration management
type ViperLoader struct {
	configFile string
	envPrefix  string
	dotEnvFile string
	flags      *pflag.FlagSet
}

// NewViperLoader creates a new ViperLoader
// configFile: path to configuration file (optional, can be empty)
// envPrefix: prefix for environment variables (defaults to MONGOREPO)
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
		dotEnvFile: ".env",
	}
}

// WithDotEnv sets the dotenv file read before the environment is consulted.
// An empty path disables dotenv loading.
func (l *ViperLoader) WithDotEnv(path string) *ViperLoader {
	l.dotEnvFile = path
	return l
}

// WithFlags binds command line flags. A flag that was set explicitly wins
// over every other source; flag names use dashes in place of underscores.
func (l *ViperLoader) WithFlags(flags *pflag.FlagSet) *ViperLoader {
	l.flags = flags
	return l
}

// Load loads configuration with precedence: flags > ENV > .env > file > defaults
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()

	l.setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	// godotenv never overrides variables that are already set
	if l.dotEnvFile != "" {
		if _, err := os.Stat(l.dotEnvFile); err == nil {
			if err := godotenv.Load(l.dotEnvFile); err != nil {
				return nil, fmt.Errorf("failed to load dotenv file %s: %w", l.dotEnvFile, err)
			}
		}
	}

	l.bindEnvVars(v)
	if err := l.bindFlags(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.InsertFailurePolicy = normalizePolicy(cfg.InsertFailurePolicy)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindEnvVars explicitly binds environment variables for every key
func (l *ViperLoader) bindEnvVars(v *viper.Viper) {
	v.BindEnv("host", l.prefixedEnv("HOST"))
	v.BindEnv("database", l.prefixedEnv("DATABASE"))
	v.BindEnv("connect_timeout", l.prefixedEnv("CONNECT_TIMEOUT"))
	v.BindEnv("operation_timeout", l.prefixedEnv("OPERATION_TIMEOUT"))
	v.BindEnv("insert_failure_policy", l.prefixedEnv("INSERT_FAILURE_POLICY"))
	v.BindEnv("log.level", l.prefixedEnv("LOG_LEVEL"))
	v.BindEnv("log.format", l.prefixedEnv("LOG_FORMAT"))
	v.BindEnv("tracing.enabled", l.prefixedEnv("TRACING_ENABLED"))
	v.BindEnv("tracing.endpoint", l.prefixedEnv("TRACING_ENDPOINT"))
	v.BindEnv("tracing.sample_rate", l.prefixedEnv("TRACING_SAMPLE_RATE"))
	v.BindEnv("tracing.environment", l.prefixedEnv("TRACING_ENVIRONMENT"))
	v.BindEnv("tracing.insecure", l.prefixedEnv("TRACING_INSECURE"))

	// MONGOREPO_COLLECTIONS_<TYPE>=<collection>
	collectionsPrefix := l.prefixedEnv("COLLECTIONS_")
	for _, kv := range os.Environ() {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, collectionsPrefix) || len(key) == len(collectionsPrefix) {
			continue
		}
		typeName := strings.ToLower(strings.TrimPrefix(key, collectionsPrefix))
		v.BindEnv("collections."+typeName, key)
	}
}

func (l *ViperLoader) bindFlags(v *viper.Viper) error {
	if l.flags == nil {
		return nil
	}
	for _, key := range []string{"host", "database", "connect_timeout", "operation_timeout", "insert_failure_policy", "log.level", "log.format", "tracing.enabled", "tracing.endpoint"} {
		name := strings.NewReplacer("_", "-", ".", "-").Replace(key)
		flag := l.flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func (l *ViperLoader) prefixedEnv(suffix string) string {
	prefix := strings.TrimSpace(l.envPrefix)
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return fmt.Sprintf("%s_%s", strings.ToUpper(prefix), suffix)
}

// setDefaults sets default values in Viper from the default config
func (l *ViperLoader) setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("host", cfg.Host)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("connect_timeout", cfg.ConnectTimeout)
	v.SetDefault("operation_timeout", cfg.OperationTimeout)
	v.SetDefault("insert_failure_policy", cfg.InsertFailurePolicy)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("tracing.enabled", cfg.Tracing.Enabled)
	v.SetDefault("tracing.endpoint", cfg.Tracing.Endpoint)
	v.SetDefault("tracing.sample_rate", cfg.Tracing.SampleRate)
	v.SetDefault("tracing.environment", cfg.Tracing.Environment)
	v.SetDefault("tracing.insecure", cfg.Tracing.Insecure)
}
