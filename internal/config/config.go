// Package config loads settings for the codeindex command from an optional
// YAML file and CODEINDEX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CODEINDEX_SEARCH_BATCH_SIZE.
const EnvPrefix = "CODEINDEX"

// Config holds all command settings.
type Config struct {
	LogLevel  string       `mapstructure:"log_level"`
	LogFormat string       `mapstructure:"log_format"`
	Metrics   string       `mapstructure:"metrics"`
	Build     BuildConfig  `mapstructure:"build"`
	Search    SearchConfig `mapstructure:"search"`
	S3        S3Config     `mapstructure:"s3"`
}

// BuildConfig configures crawling.
type BuildConfig struct {
	MaxFileSize int64    `mapstructure:"max_file_size"`
	Workers     int      `mapstructure:"workers"`
	Ignore      []string `mapstructure:"ignore"`
}

// SearchConfig configures result sets.
type SearchConfig struct {
	BatchSize          int           `mapstructure:"batch_size"`
	ChannelCapacity    int           `mapstructure:"channel_capacity"`
	Debounce           time.Duration `mapstructure:"debounce"`
	MaxConcurrentLoads int64         `mapstructure:"max_concurrent_loads"`
	IOLimit            int64         `mapstructure:"io_limit"`
}

// S3Config names the bucket and catalog table used by publish.
type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Table  string `mapstructure:"table"`
}

// Load reads configPath, or config.yaml from the working directory when
// configPath is empty. A missing default file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("codeindex")
		v.SetConfigType("yaml")
	}

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics", "")
	v.SetDefault("build.max_file_size", 1<<20)
	v.SetDefault("build.workers", 0)
	v.SetDefault("build.ignore", []string{})
	v.SetDefault("search.batch_size", 100)
	v.SetDefault("search.channel_capacity", 1000)
	v.SetDefault("search.debounce", 20*time.Millisecond)
	v.SetDefault("search.max_concurrent_loads", 0)
	v.SetDefault("search.io_limit", 0)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.table", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
