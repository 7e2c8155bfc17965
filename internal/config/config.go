// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the resolved application configuration.
type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Knowledge KnowledgeConfig
	Storage   StorageConfig
	Logging   LoggingConfig
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Host string
	Port int
}

// LLMConfig configures the conversation model client.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// KnowledgeConfig configures the knowledge base client.
type KnowledgeConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// StorageConfig configures session persistence.
type StorageConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string
	Path   string
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on viper. Call once before Load.
func SetDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("knowledge.timeout", "10s")
	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// Load builds a Config from the current viper state.
func Load() Config {
	cfg := Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		LLM: LLMConfig{
			BaseURL:     viper.GetString("llm.base_url"),
			APIKey:      viper.GetString("llm.api_key"),
			Model:       viper.GetString("llm.model"),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxTokens:   viper.GetInt("llm.max_tokens"),
			Timeout:     viper.GetDuration("llm.timeout"),
		},
		Knowledge: KnowledgeConfig{
			BaseURL: viper.GetString("knowledge.base_url"),
			APIKey:  viper.GetString("knowledge.api_key"),
			Timeout: viper.GetDuration("knowledge.timeout"),
		},
		Storage: StorageConfig{
			Driver: viper.GetString("storage.driver"),
			Path:   ExpandPath(viper.GetString("storage.path")),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultDBPath()
	}
	return cfg
}

// DefaultDBPath returns the default session database location.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "taxpilot.db"
	}
	return filepath.Join(home, ".local", "share", "taxpilot", "sessions.db")
}

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
