// Package config loads application configuration from a YAML file and
// ELBCHAT_-prefixed environment variables, environment taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration document.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Logging   Logging   `mapstructure:"logging"`
	Model     Model     `mapstructure:"model"`
	Embedding Embedding `mapstructure:"embedding"`
	Retrieval Retrieval `mapstructure:"retrieval"`
	Memory    Memory    `mapstructure:"memory"`
	Tools     Tools     `mapstructure:"tools"`
}

// Server configures the HTTP/WebSocket ingress.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Logging configures the structured logger.
type Logging struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// Model configures the chat model provider.
type Model struct {
	Provider    string        `mapstructure:"provider"`
	Name        string        `mapstructure:"name"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Embedding configures the embedding provider.
type Embedding struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// Retrieval configures the vector store backends.
type Retrieval struct {
	// Backend selects the index implementation: memory or pgvector.
	Backend     string `mapstructure:"backend"`
	DatabaseURL string `mapstructure:"database_url"`
	// Dimensions is the embedding width, required for the pgvector backend.
	Dimensions int `mapstructure:"dimensions"`
}

// Memory configures session memory.
type Memory struct {
	WindowSize  int           `mapstructure:"window_size"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// Tools configures the external tool APIs.
type Tools struct {
	WeatherAPIKey    string `mapstructure:"weather_api_key"`
	WeatherAPIURL    string `mapstructure:"weather_api_url"`
	PlacesAPIKey     string `mapstructure:"places_api_key"`
	PlacesAPIURL     string `mapstructure:"places_api_url"`
	DirectionsAPIURL string `mapstructure:"directions_api_url"`
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ELBCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.name", "deepseek-chat")
	v.SetDefault("model.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("model.temperature", 0.7)
	v.SetDefault("model.timeout", 60*time.Second)

	v.SetDefault("embedding.model", "text-embedding-3-small")

	v.SetDefault("retrieval.backend", "memory")
	v.SetDefault("retrieval.dimensions", 1536)

	v.SetDefault("memory.window_size", 10)
	v.SetDefault("memory.idle_timeout", time.Hour)

	v.SetDefault("tools.weather_api_url", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("tools.places_api_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("tools.directions_api_url", "https://maps.googleapis.com/maps/api/directions/json")
}

func (c *Config) validate() error {
	switch c.Retrieval.Backend {
	case "memory":
	case "pgvector":
		if c.Retrieval.DatabaseURL == "" {
			return fmt.Errorf("retrieval.database_url is required for the pgvector backend")
		}
		if c.Retrieval.Dimensions <= 0 {
			return fmt.Errorf("retrieval.dimensions must be positive for the pgvector backend")
		}
	default:
		return fmt.Errorf("unknown retrieval backend %q", c.Retrieval.Backend)
	}
	switch c.Model.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	if c.Memory.WindowSize <= 0 {
		return fmt.Errorf("memory.window_size must be positive")
	}
	return nil
}
