package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xraph/confy"
	"github.com/xraph/confy/sources"
	"github.com/xraph/go-utils/log"
	"gopkg.in/yaml.v3"

	"github.com/xraph/multi/errors"
	"github.com/xraph/multi/logger"
)

// EnvPrefix prefixes environment overrides. A setting's variable is its
// path upper-cased with dots and underscores joined by "_", for example
// MULTI_LOGGING_LEVEL or MULTI_COMPOSITION_KEY_PREFIX.
const EnvPrefix = "MULTI_"

// Config configures a composition and the container that hosts it.
type Config struct {
	Logging     logger.LoggingConfig `yaml:"logging"`
	Composition CompositionConfig    `yaml:"composition"`
	Metrics     MetricsConfig        `yaml:"metrics"`
	Tracing     TracingConfig        `yaml:"tracing"`
}

// CompositionConfig controls declare/resolve behaviour.
type CompositionConfig struct {
	// Strict re-checks at finalize time that no non-multi provider declared
	// during the declare phase shares a token with multi-contributions.
	Strict bool `yaml:"strict"`
	// KeyPrefix prefixes the diagnostic rendering of generated keys.
	KeyPrefix string `yaml:"key_prefix"`
	// DescribeLimit truncates provider renderings embedded in keys. Zero
	// disables truncation.
	DescribeLimit int `yaml:"describe_limit"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig toggles OpenTelemetry spans.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Logging: logger.LoggingConfig{
			Level:       "info",
			Format:      "console",
			Environment: "development",
		},
		Composition: CompositionConfig{
			Strict:        false,
			KeyPrefix:     "multi",
			DescribeLimit: 256,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "multi",
		},
		Tracing: TracingConfig{
			Enabled: true,
		},
	}
}

// Load reads a YAML file on top of the defaults and applies environment
// overrides.
func Load(path string) (Config, error) {
	file, err := sources.NewFileSource(path, sources.FileSourceOptions{
		Name:          "multi.file",
		Priority:      100,
		ExpandEnvVars: true,
		RequireFile:   true,
		Logger:        log.NewNoopLogger(),
	})
	if err != nil {
		return Config{}, errors.ErrConfigError("failed to open config file "+path, err)
	}

	return load(Default(), file)
}

// Parse decodes YAML on top of the defaults and applies environment overrides.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.ErrConfigError("failed to parse config", err)
	}

	return load(cfg)
}

// load layers the environment over srcs and binds every known setting on
// top of cfg.
func load(cfg Config, srcs ...confy.ConfigSource) (Config, error) {
	env, err := sources.NewEnvSource(EnvPrefix, sources.EnvSourceOptions{
		Prefix:         EnvPrefix,
		Separator:      "_",
		Priority:       200,
		TypeConversion: true,
		Logger:         log.NewNoopLogger(),
	})
	if err != nil {
		return Config{}, errors.ErrConfigError("failed to create env source", err)
	}

	manager := confy.New(confy.WithLogger(log.NewNoopLogger()))
	if err := manager.LoadFrom(append(srcs, env)...); err != nil {
		return Config{}, errors.ErrConfigError("failed to load config", err)
	}

	for _, s := range settings {
		v := manager.Get(envKey(s.path))
		if v == nil {
			v = manager.Get(s.path)
		}
		if v == nil {
			continue
		}
		if err := s.set(&cfg, v); err != nil {
			return Config{}, errors.ErrInvalidConfig(s.path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey is where the env source nests a setting: MULTI_COMPOSITION_KEY_PREFIX
// loads as COMPOSITION.KEY.PREFIX.
func envKey(path string) string {
	return strings.ToUpper(strings.ReplaceAll(path, "_", "."))
}

type setting struct {
	path string
	set  func(*Config, any) error
}

var settings = []setting{
	{"logging.level", stringSetting(func(c *Config) *string { return &c.Logging.Level })},
	{"logging.format", stringSetting(func(c *Config) *string { return &c.Logging.Format })},
	{"logging.environment", stringSetting(func(c *Config) *string { return &c.Logging.Environment })},
	{"composition.strict", boolSetting(func(c *Config) *bool { return &c.Composition.Strict })},
	{"composition.key_prefix", stringSetting(func(c *Config) *string { return &c.Composition.KeyPrefix })},
	{"composition.describe_limit", intSetting(func(c *Config) *int { return &c.Composition.DescribeLimit })},
	{"metrics.enabled", boolSetting(func(c *Config) *bool { return &c.Metrics.Enabled })},
	{"metrics.namespace", stringSetting(func(c *Config) *string { return &c.Metrics.Namespace })},
	{"tracing.enabled", boolSetting(func(c *Config) *bool { return &c.Tracing.Enabled })},
}

func stringSetting(field func(*Config) *string) func(*Config, any) error {
	return func(c *Config, v any) error {
		*field(c) = fmt.Sprint(v)
		return nil
	}
}

func boolSetting(field func(*Config) *bool) func(*Config, any) error {
	return func(c *Config, v any) error {
		switch b := v.(type) {
		case bool:
			*field(c) = b
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return err
			}
			*field(c) = parsed
		default:
			return fmt.Errorf("expected a boolean, got %T", v)
		}
		return nil
	}
}

func intSetting(field func(*Config) *int) func(*Config, any) error {
	return func(c *Config, v any) error {
		switch n := v.(type) {
		case int:
			*field(c) = n
		case int64:
			*field(c) = int(n)
		case float64:
			if n != float64(int(n)) {
				return fmt.Errorf("expected an integer, got %v", n)
			}
			*field(c) = int(n)
		case string:
			parsed, err := strconv.Atoi(n)
			if err != nil {
				return err
			}
			*field(c) = parsed
		default:
			return fmt.Errorf("expected an integer, got %T", v)
		}
		return nil
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return errors.ErrInvalidConfig("logging.level", fmt.Errorf("unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return errors.ErrInvalidConfig("logging.format", fmt.Errorf("unknown format %q", c.Logging.Format))
	}
	if c.Composition.DescribeLimit < 0 {
		return errors.ErrInvalidConfig("composition.describe_limit", fmt.Errorf("must not be negative, got %d", c.Composition.DescribeLimit))
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return errors.ErrInvalidConfig("metrics.namespace", fmt.Errorf("required when metrics are enabled"))
	}
	return nil
}
