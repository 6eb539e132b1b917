package gridsheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment variables read by LoadConfig.
const EnvPrefix = "GRIDSHEET_"

// Config is the file/environment form of the Book options.
type Config struct {
	HistoryLimit int              `koanf:"history_limit"`
	Limits       Limits           `koanf:"limits"`
	AsyncTTL     time.Duration    `koanf:"async_ttl"`
	Functions    []FunctionConfig `koanf:"functions"`
}

// FunctionConfig declares a custom function backed by an expr-lang program.
// A MaxArgs below MinArgs makes the function variadic.
type FunctionConfig struct {
	Name    string `koanf:"name"`
	Expr    string `koanf:"expr"`
	MinArgs int    `koanf:"min_args"`
	MaxArgs int    `koanf:"max_args"`
}

// DefaultConfig returns the configuration used when nothing is loaded.
func DefaultConfig() *Config {
	return &Config{
		HistoryLimit: DefaultHistoryLimit,
		Limits:       DefaultLimits(),
	}
}

func defaultConfigMap() map[string]any {
	l := DefaultLimits()
	return map[string]any{
		"history_limit":   DefaultHistoryLimit,
		"limits.min_rows": l.MinRows,
		"limits.max_rows": l.MaxRows,
		"limits.min_cols": l.MinCols,
		"limits.max_cols": l.MaxCols,
		"async_ttl":       "0s",
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file and
// GRIDSHEET_ environment variables, in increasing precedence. An empty path
// skips the file.
//
//	GRIDSHEET_HISTORY_LIMIT=50
//	GRIDSHEET_LIMITS_MAX_ROWS=1000
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfigMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i := range cfg.Functions {
		if cfg.Functions[i].MaxArgs < cfg.Functions[i].MinArgs {
			cfg.Functions[i].MaxArgs = -1
		}
	}
	return &cfg, nil
}

// envKey maps GRIDSHEET_LIMITS_MAX_ROWS to limits.max_rows.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "limits_"); ok {
		return "limits." + rest
	}
	return key
}

// Validate checks the configuration for values a Book cannot use.
func (c *Config) Validate() error {
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be at least 1, got %d", c.HistoryLimit)
	}
	if c.Limits.MinRows < 1 || c.Limits.MinCols < 1 {
		return fmt.Errorf("limits: min_rows and min_cols must be at least 1")
	}
	if c.Limits.MaxRows >= 0 && c.Limits.MaxRows < c.Limits.MinRows {
		return fmt.Errorf("limits: max_rows %d is below min_rows %d", c.Limits.MaxRows, c.Limits.MinRows)
	}
	if c.Limits.MaxCols >= 0 && c.Limits.MaxCols < c.Limits.MinCols {
		return fmt.Errorf("limits: max_cols %d is below min_cols %d", c.Limits.MaxCols, c.Limits.MinCols)
	}
	if c.AsyncTTL < 0 {
		return fmt.Errorf("async_ttl must not be negative")
	}
	for i, fn := range c.Functions {
		if fn.Name == "" || fn.Expr == "" {
			return fmt.Errorf("functions[%d]: name and expr are required", i)
		}
	}
	return nil
}
