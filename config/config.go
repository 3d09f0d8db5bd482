// Package config loads agentflow settings.
//
// Precedence: defaults, then the YAML file (when a path is given), then
// AGENTFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvPrefix = "AGENTFLOW_"

type Config struct {
	API      APIConfig      `yaml:"api"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig points the client at an agent-flow backend.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	PathPrefix string        `yaml:"path_prefix"`
	Timeout    time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Store is "postgres" or "redis".
	Store        string `yaml:"store"`
	DefaultLimit int    `yaml:"default_limit"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format      string   `yaml:"format"`
	OutputPaths []string `yaml:"output_paths"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			PathPrefix: "/api/v2",
			Timeout:    10 * time.Second,
		},
		Server: ServerConfig{
			Addr:         ":8000",
			Store:        "redis",
			DefaultLimit: 50,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "agentflow:",
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
	}
}

// Load builds a Config. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		c.Database.URL = v
	}

	strs := map[string]*string{
		"API_BASE_URL":    &c.API.BaseURL,
		"API_PATH_PREFIX": &c.API.PathPrefix,
		"SERVER_ADDR":     &c.Server.Addr,
		"STORE":           &c.Server.Store,
		"DATABASE_URL":    &c.Database.URL,
		"REDIS_ADDR":      &c.Redis.Addr,
		"REDIS_PASSWORD":  &c.Redis.Password,
		"REDIS_PREFIX":    &c.Redis.Prefix,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FORMAT":      &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"REDIS_DB":      &c.Redis.DB,
		"DEFAULT_LIMIT": &c.Server.DefaultLimit,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "API_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sAPI_TIMEOUT: %w", EnvPrefix, err)
		}
		c.API.Timeout = d
	}
	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	switch c.Server.Store {
	case "postgres", "redis":
	default:
		errs = append(errs, fmt.Errorf("server.store must be postgres or redis, got %q", c.Server.Store))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// APIBase is the base URL joined with the path prefix.
func (c *Config) APIBase() string {
	return c.API.BaseURL + c.API.PathPrefix
}
