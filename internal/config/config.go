// Package config loads snippetexec settings from YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/snippetexec/datasource"
	"github.com/jonwraymond/snippetexec/metrics"
	"github.com/jonwraymond/snippetexec/runtime"
)

// EnvPrefix prefixes environment overrides, e.g. SNIPPETEXEC_PROFILE or
// SNIPPETEXEC_SERVER_ADDR.
const EnvPrefix = "SNIPPETEXEC"

// Metric store backends.
const (
	MetricsMemory = "memory"
	MetricsRedis  = "redis"
)

// ErrInvalidConfig is returned when a loaded configuration is unusable.
var ErrInvalidConfig = errors.New("invalid configuration")

type WorkerConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

type DataConfig struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	MaxRows int    `mapstructure:"max_rows"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type MetricsConfig struct {
	Backend string             `mapstructure:"backend"`
	Values  map[string]float64 `mapstructure:"values"`
	Redis   RedisConfig        `mapstructure:"redis"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Profile        string        `mapstructure:"profile"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxCalls       int           `mapstructure:"max_calls"`
	MaxOutputCells int           `mapstructure:"max_output_cells"`
	Allow          []string      `mapstructure:"allow"`
	Worker         WorkerConfig  `mapstructure:"worker"`
	Data           DataConfig    `mapstructure:"data"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
	Server         ServerConfig  `mapstructure:"server"`
	Log            LogConfig     `mapstructure:"log"`
}

// Load reads the configuration. An empty path searches ./snippetexec.yaml
// and $HOME/.snippetexec/snippetexec.yaml; a missing file is not an error
// in that case. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("snippetexec")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.snippetexec")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("profile", string(runtime.ProfileDev))
	v.SetDefault("timeout", runtime.DefaultTimeout)
	v.SetDefault("max_calls", runtime.DefaultMaxCalls)
	v.SetDefault("max_output_cells", runtime.DefaultMaxOutputCells)
	v.SetDefault("allow", []string{})
	v.SetDefault("worker.enabled", false)
	v.SetDefault("worker.command", "")
	v.SetDefault("worker.args", []string{})
	v.SetDefault("data.driver", "")
	v.SetDefault("data.dsn", "")
	v.SetDefault("data.max_rows", datasource.DefaultMaxRows)
	v.SetDefault("metrics.backend", MetricsMemory)
	v.SetDefault("metrics.redis.addr", "localhost:6379")
	v.SetDefault("metrics.redis.password", "")
	v.SetDefault("metrics.redis.db", 0)
	v.SetDefault("metrics.redis.key", metrics.DefaultRedisKey)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks the values that cannot be repaired by defaults.
func (c *Config) Validate() error {
	var problems []string
	if !runtime.SecurityProfile(c.Profile).IsValid() {
		problems = append(problems, fmt.Sprintf("unknown profile %q", c.Profile))
	}
	if c.Profile == string(runtime.ProfileHardened) && !c.Worker.Enabled {
		problems = append(problems, "hardened profile requires worker.enabled")
	}
	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.MaxCalls < 0 || c.MaxOutputCells < 0 {
		problems = append(problems, "limits must not be negative")
	}
	switch c.Data.Driver {
	case "", datasource.DriverSQLite, datasource.DriverPostgres:
	default:
		problems = append(problems, fmt.Sprintf("unknown data driver %q", c.Data.Driver))
	}
	if c.Data.Driver != "" && c.Data.DSN == "" {
		problems = append(problems, "data.dsn is required with data.driver")
	}
	switch c.Metrics.Backend {
	case MetricsMemory, MetricsRedis:
	default:
		problems = append(problems, fmt.Sprintf("unknown metrics backend %q", c.Metrics.Backend))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Logger returns a slog.Logger writing to w in the configured format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
