// Package config loads the covenant host configuration from a YAML or JSON
// file, with COVENANT_* environment variables taking precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is read when no path is given and COVENANT_CONFIG is unset.
	DefaultPath = "covenant.yaml"
	// EnvPath overrides the config file location.
	EnvPath = "COVENANT_CONFIG"
)

// Config is the host configuration.
type Config struct {
	Log     LogConfig   `yaml:"log" json:"log" mapstructure:"log"`
	Store   StoreConfig `yaml:"store" json:"store" mapstructure:"store"`
	HTTP    HTTPConfig  `yaml:"http" json:"http" mapstructure:"http"`
	Account string      `yaml:"account" json:"account" mapstructure:"account"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" mapstructure:"level"`
	Format string `yaml:"format" json:"format" mapstructure:"format"` // text | json
}

// StoreConfig selects and configures the state backend.
type StoreConfig struct {
	Backend string      `yaml:"backend" json:"backend" mapstructure:"backend"` // memory | file | redis | sqlite
	Path    string      `yaml:"path" json:"path" mapstructure:"path"`
	Redis   RedisConfig `yaml:"redis" json:"redis" mapstructure:"redis"`

	// EncryptionKey is a hex AES-256 key; when set, state data is sealed.
	EncryptionKey string   `yaml:"encryption_key" json:"encryption_key" mapstructure:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys" json:"fallback_keys" mapstructure:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr" mapstructure:"addr"`
	Password string `yaml:"password" json:"password" mapstructure:"password"`
	DB       int    `yaml:"db" json:"db" mapstructure:"db"`
	Prefix   string `yaml:"prefix" json:"prefix" mapstructure:"prefix"`
	TTL      string `yaml:"ttl" json:"ttl" mapstructure:"ttl"`
	// Lock enables the distributed account lock.
	Lock bool `yaml:"lock" json:"lock" mapstructure:"lock"`
}

type HTTPConfig struct {
	Port      int     `yaml:"port" json:"port" mapstructure:"port"`
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `yaml:"burst" json:"burst" mapstructure:"burst"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Store: StoreConfig{
			Backend: "memory",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		HTTP: HTTPConfig{Port: 8080, Burst: 10},
	}
}

// envKeys maps environment variables onto config keys.
var envKeys = map[string][]string{
	"COVENANT_LOG_LEVEL":      {"log", "level"},
	"COVENANT_LOG_FORMAT":     {"log", "format"},
	"COVENANT_STORE_BACKEND":  {"store", "backend"},
	"COVENANT_STORE_PATH":     {"store", "path"},
	"COVENANT_ENCRYPTION_KEY": {"store", "encryption_key"},
	"COVENANT_REDIS_ADDR":     {"store", "redis", "addr"},
	"COVENANT_REDIS_PASSWORD": {"store", "redis", "password"},
	"COVENANT_REDIS_DB":       {"store", "redis", "db"},
	"COVENANT_HTTP_PORT":      {"http", "port"},
	"COVENANT_RATE_LIMIT":     {"http", "rate_limit"},
	"COVENANT_ACCOUNT":        {"account"},
}

// Load reads the file at path (or COVENANT_CONFIG, or DefaultPath).
// A missing default file yields Default(); a missing explicit file is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, err
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	overlay := map[string]any{}
	for env, path := range envKeys {
		v, ok := lookup(env)
		if !ok {
			continue
		}
		node := overlay
		for _, k := range path[:len(path)-1] {
			next, ok := node[k].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[k] = next
			}
			node = next
		}
		node[path[len(path)-1]] = v
	}
	if len(overlay) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(overlay); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

// Validate checks the values a host cannot start without.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "file", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	return nil
}
