package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeMock = "mock"
	ModeLive = "live"

	BackendGateway = "gateway"
	BackendYahoo   = "yahoo"
)

type Server struct {
	Port               string `yaml:"port"`
	RequestTimeoutSec  int    `yaml:"request_timeout_sec"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec"`
}

type Provider struct {
	// Mode selects the quote provider once at startup: mock or live.
	Mode string `yaml:"mode"`
}

type Mock struct {
	DelayMs int `yaml:"delay_ms"`
}

type Live struct {
	// Backend is the upstream session implementation: gateway or yahoo.
	Backend        string `yaml:"backend"`
	GatewayURL     string `yaml:"gateway_url"`
	HTTPTimeoutSec int    `yaml:"http_timeout_sec"`
	MaxConcurrency int    `yaml:"max_concurrency"`
	// Environment variable names holding the upstream credentials.
	APIKeyEnv    string `yaml:"api_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
}

type Auth struct {
	// APIKey is the shared bearer secret. Empty disables authentication.
	APIKey string `yaml:"api_key"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Provider Provider `yaml:"provider"`
	Mock     Mock     `yaml:"mock"`
	Live     Live     `yaml:"live"`
	Auth     Auth     `yaml:"auth"`
	Log      Log      `yaml:"log"`
}

func Default() Config {
	return Config{
		Server:   Server{Port: "8000", RequestTimeoutSec: 10, ShutdownTimeoutSec: 5},
		Provider: Provider{Mode: ModeMock},
		Mock:     Mock{DelayMs: 100},
		Live: Live{
			Backend:        BackendGateway,
			GatewayURL:     "http://127.0.0.1:8001",
			HTTPTimeoutSec: 10,
			MaxConcurrency: 8,
			APIKeyEnv:      "SHIOAJI_API_KEY",
			SecretKeyEnv:   "SHIOAJI_SECRET_KEY",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads YAML config from path. If path is empty, config.yaml is used when
// present. Variables from a .env file in the working directory are exported
// first without overriding the real environment, then environment variables
// override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Provider.Mode {
	case ModeMock, ModeLive:
	default:
		return fmt.Errorf("invalid provider mode %q (want %s or %s)", c.Provider.Mode, ModeMock, ModeLive)
	}
	switch c.Live.Backend {
	case BackendGateway, BackendYahoo:
	default:
		return fmt.Errorf("invalid live backend %q (want %s or %s)", c.Live.Backend, BackendGateway, BackendYahoo)
	}
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Server.RequestTimeoutSec <= 0 {
		return fmt.Errorf("invalid request timeout %d", c.Server.RequestTimeoutSec)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if err := envInt("REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec); err != nil {
		return err
	}
	if v := os.Getenv("QUOTE_PROVIDER"); v != "" {
		cfg.Provider.Mode = strings.ToLower(v)
	}
	if err := envInt("MOCK_DELAY_MS", &cfg.Mock.DelayMs); err != nil {
		return err
	}
	if v := os.Getenv("LIVE_BACKEND"); v != "" {
		cfg.Live.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SHIOAJI_GATEWAY_URL"); v != "" {
		cfg.Live.GatewayURL = v
	}
	if err := envInt("LIVE_MAX_CONCURRENCY", &cfg.Live.MaxConcurrency); err != nil {
		return err
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	x, err := strconv.Atoi(v)
	if err != nil || x < 0 {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = x
	return nil
}
