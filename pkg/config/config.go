package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and/or config file.
// Keys present in defaults are bound to the environment even when the
// config file does not mention them.
func Load(cfg any, envPrefix string, configPath string, defaults map[string]any) error {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Environment variables
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// a variable set to "" overrides the default, e.g. to disable the sweep
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	// Config file (optional)
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist, provided we have env vars
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// AppConfig is the configuration shared by the worker and the CLI
type AppConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // console or json

	// ProvidersFile is an optional YAML file of provider configurations
	ProvidersFile string `mapstructure:"providers_file"`

	Supabase SupabaseConfig `mapstructure:"supabase"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type SupabaseConfig struct {
	URL        string        `mapstructure:"url"`
	ServiceKey string        `mapstructure:"service_key"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`

	// Parallelism bounds concurrent probes within one sweep
	Parallelism int `mapstructure:"parallelism"`

	// SweepCron schedules a test of every active configuration; empty disables
	// it, including an empty LLM_WORKER_SWEEP_CRON
	SweepCron string `mapstructure:"sweep_cron"`
}

type MetricsConfig struct {
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// Defaults returns the default value of every AppConfig key
func Defaults() map[string]any {
	return map[string]any{
		"log_level":            "info",
		"log_format":           "console",
		"providers_file":       "",
		"supabase.url":         "",
		"supabase.service_key": "",
		"supabase.cache_ttl":   5 * time.Minute,
		"supabase.timeout":     10 * time.Second,
		"redis.addr":           "localhost:6379",
		"redis.password":       "",
		"redis.db":             0,
		"worker.concurrency":   4,
		"worker.parallelism":   4,
		"worker.sweep_cron":    "@every 15m",
		"metrics.addr":         ":9090",
		"metrics.namespace":    "llm_providers",
	}
}

// LoadApp loads AppConfig with defaults applied
func LoadApp(envPrefix, configPath string) (*AppConfig, error) {
	var cfg AppConfig
	if err := Load(&cfg, envPrefix, configPath, Defaults()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateWorker checks the settings the worker cannot run without
func (c *AppConfig) ValidateWorker() error {
	var errs []error
	if c.Supabase.URL == "" {
		errs = append(errs, errors.New("supabase.url is required"))
	}
	if c.Supabase.ServiceKey == "" {
		errs = append(errs, errors.New("supabase.service_key is required"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required"))
	}
	if c.Worker.Concurrency <= 0 {
		errs = append(errs, errors.New("worker.concurrency must be positive"))
	}
	return errors.Join(errs...)
}
