package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig is the process-level configuration for the kwic binary.
type AppConfig struct {
	Server struct {
		Port         string   `mapstructure:"port"`
		DataDir      string   `mapstructure:"data_dir"`
		MaxBodyBytes int64    `mapstructure:"max_body_bytes"`
		CORSOrigins  []string `mapstructure:"cors_origins"`
	} `mapstructure:"server"`
	Jobs struct {
		Workers int           `mapstructure:"workers"`
		MaxAge  time.Duration `mapstructure:"max_age"`
	} `mapstructure:"jobs"`
	Index struct {
		Parallelism        int `mapstructure:"parallelism"`
		MinShiftsPerWorker int `mapstructure:"min_shifts_per_worker"`
	} `mapstructure:"index"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
}

// EnvPrefix is the prefix of environment overrides, e.g. KWIC_SERVER_PORT.
const EnvPrefix = "KWIC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.data_dir", "./kwic_data")
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("jobs.workers", 2)
	v.SetDefault("jobs.max_age", 24*time.Hour)
	v.SetDefault("index.parallelism", 0)
	v.SetDefault("index.min_shifts_per_worker", DefaultMinShiftsPerWorker)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Hour)
}

// LoadAppConfig reads configuration from path (YAML, optional) and KWIC_*
// environment variables. With an empty path, "kwic.yaml" is looked up in the
// working directory and ./config; a missing file there is not an error.
func LoadAppConfig(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("kwic")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// Validate checks the loaded values and returns one message per problem found.
func (c *AppConfig) Validate() []string {
	var problems []string
	if strings.TrimSpace(c.Server.Port) == "" {
		problems = append(problems, "server.port cannot be empty")
	}
	if strings.TrimSpace(c.Server.DataDir) == "" {
		problems = append(problems, "server.data_dir cannot be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		problems = append(problems, "server.max_body_bytes must be positive")
	}
	if c.Jobs.Workers < 1 {
		problems = append(problems, "jobs.workers must be at least 1")
	}
	if c.Index.Parallelism < 0 {
		problems = append(problems, "index.parallelism cannot be negative")
	}
	if c.Index.MinShiftsPerWorker < 0 {
		problems = append(problems, "index.min_shifts_per_worker cannot be negative")
	}
	return problems
}

// DefaultIndexSettings returns settings for a new index named name, using the
// configured index defaults for anything left unset.
func (c *AppConfig) DefaultIndexSettings(name string) IndexSettings {
	settings := IndexSettings{
		Name:               name,
		Parallelism:        c.Index.Parallelism,
		MinShiftsPerWorker: c.Index.MinShiftsPerWorker,
	}
	settings.ApplyDefaults()
	return settings
}
