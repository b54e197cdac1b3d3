package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "GATEKEEPER"

type Config struct {
	// Environment is APP_ENV as seen at load time.
	Environment string `mapstructure:"-"`

	Server struct {
		Addr         string        `mapstructure:"addr"`
		Mode         string        `mapstructure:"mode"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"server"`

	// Gatekeeper locates the remote Authorization Service. URL is fixed for
	// the lifetime of the process.
	Gatekeeper struct {
		URL          string        `mapstructure:"url"`
		ValidatePath string        `mapstructure:"validate_path"`
		UsagePath    string        `mapstructure:"usage_path"`
		Timeout      time.Duration `mapstructure:"timeout"`
	} `mapstructure:"gatekeeper"`

	// Redis backs the optional usage tally. Empty URL disables it.
	Redis struct {
		URL       string        `mapstructure:"url"`
		PoolSize  int           `mapstructure:"pool_size"`
		Retention time.Duration `mapstructure:"retention"`
	} `mapstructure:"redis"`

	Observability struct {
		MetricsEnabled     bool    `mapstructure:"metrics_enabled"`
		TraceEnabled       bool    `mapstructure:"trace_enabled"`
		TracingEndpointURL string  `mapstructure:"tracing_endpoint_url"`
		SampleRatio        float64 `mapstructure:"sample_ratio"`
		Insecure           bool    `mapstructure:"insecure"`
		LogLevel           string  `mapstructure:"log_level"`
		Format             string  `mapstructure:"log_format"`
		LogSource          bool    `mapstructure:"log_source"`
	} `mapstructure:"observability"`
}

var ErrMissingGatekeeperURL = errors.New("gatekeeper.url is required")

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("gatekeeper.url", "")
	v.SetDefault("gatekeeper.validate_path", "/validate")
	v.SetDefault("gatekeeper.usage_path", "/recordUsage")
	v.SetDefault("gatekeeper.timeout", time.Duration(0))

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.retention", 35*24*time.Hour)

	v.SetDefault("observability.metrics_enabled", true)
	v.SetDefault("observability.trace_enabled", false)
	v.SetDefault("observability.tracing_endpoint_url", "")
	v.SetDefault("observability.sample_ratio", 1.0)
	v.SetDefault("observability.insecure", true)
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")
	v.SetDefault("observability.log_source", false)
}

// Load reads config.yaml from ./config or the working directory, merges
// config.<APP_ENV>.yaml when present and applies GATEKEEPER_* overrides.
// A missing config file is not an error; env and defaults still apply.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	logger := slog.Default()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.Info("No config file found, using defaults and environment")
	}

	env := os.Getenv("APP_ENV")
	if env != "" {
		v.SetConfigName(fmt.Sprintf("config.%s", env))
		if err := v.MergeInConfig(); err != nil {
			logger.Info("No environment-specific config (optional)", slog.String("env", env))
		} else {
			logger.Info("Environment-specific config loaded", slog.String("env", env))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Environment = env

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		slog.Default().Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	return cfg
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gatekeeper.URL) == "" {
		return ErrMissingGatekeeperURL
	}
	if !strings.HasPrefix(c.Gatekeeper.URL, "http://") && !strings.HasPrefix(c.Gatekeeper.URL, "https://") {
		return fmt.Errorf("gatekeeper.url must be an http(s) URL, got %q", c.Gatekeeper.URL)
	}
	if r := c.Observability.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("observability.sample_ratio must be within [0, 1], got %v", r)
	}
	return nil
}
