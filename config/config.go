// Package config provides configuration management for the huddled server.
// It supports loading configuration from YAML files with environment variable
// overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultListenAddr     = ":8080"
	DefaultRequestTimeout = 60 * time.Second

	DefaultSTTModel    = "nova-2"
	DefaultSTTLanguage = "en-US"

	DefaultLLMModel       = "Qwen/Qwen3-Coder-480B-A35B-Instruct-FP8"
	DefaultLLMTemperature = 0.7
	DefaultLLMTopP        = 0.8
	DefaultLLMMaxTokens   = 500

	// CollaboratorTimeout bounds every STT/LLM/TTS network call so a stalled
	// provider cannot wedge a meeting.
	CollaboratorTimeout = 30 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// RequestTimeout bounds end-to-end request handling.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// RedisConfig holds Redis settings for the turn-dedup reservation cache.
// Redis is optional; when Addr is empty the deduplicator relies on the
// database re-check alone.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DeepgramConfig holds speech-to-text and text-to-speech settings.
type DeepgramConfig struct {
	// APIKey authenticates against the Deepgram API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the API endpoint (tests point this at a fake).
	BaseURL string `yaml:"base_url"`

	// Model is the transcription model (default: nova-2).
	Model string `yaml:"model"`

	// Language is the transcription language (default: en-US).
	Language string `yaml:"language"`
}

// LLMConfig holds language-generation settings for an OpenAI-compatible
// chat completions endpoint.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Environment string `yaml:"environment"`
	JSONFormat  bool   `yaml:"json_format"`
}

// Config is the root configuration for the huddled server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Deepgram DeepgramConfig `yaml:"deepgram"`
	LLM      LLMConfig      `yaml:"llm"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Default returns a Config with development defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:     DefaultListenAddr,
			RequestTimeout: DefaultRequestTimeout,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "huddle",
			User:     "huddle",
			SSLMode:  "disable",
			MaxConns: 25,
			MinConns: 5,
		},
		Deepgram: DeepgramConfig{
			Model:    DefaultSTTModel,
			Language: DefaultSTTLanguage,
		},
		LLM: LLMConfig{
			Model:       DefaultLLMModel,
			Temperature: DefaultLLMTemperature,
			TopP:        DefaultLLMTopP,
			MaxTokens:   DefaultLLMMaxTokens,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Environment: "development",
		},
	}
}

// Load reads configuration from the given YAML file path, applying defaults
// for unset fields and environment overrides last. An empty path skips the
// file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from environment variables. Secrets are
// expected to arrive this way in deployment.
func (c *Config) applyEnv() {
	if v := os.Getenv("HUDDLE_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Database.Port = p
		}
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.Database = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		c.Database.SSLMode = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("DEEPGRAM_API_KEY"); v != "" {
		c.Deepgram.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
}

// Validate checks that required fields are set and values are sane.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max connections (%d) must be >= min connections (%d)", c.Database.MaxConns, c.Database.MinConns)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("invalid llm temperature: %g", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max tokens must be positive")
	}
	return nil
}
