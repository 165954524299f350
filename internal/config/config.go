package config

import (
	"fmt"
	"time"
)

// Config represents the main Sentinel configuration
type Config struct {
	// AI provider used for reasoning and synthesis
	AI AIConfig `json:"ai" mapstructure:"ai"`

	// Tools
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Knowledge base
	Knowledge KnowledgeConfig `json:"knowledge" mapstructure:"knowledge"`

	// Gateway configuration
	Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// AIConfig holds LLM provider configuration
type AIConfig struct {
	Provider       string  `json:"provider" mapstructure:"provider"` // openai, anthropic
	APIKey         string  `json:"api_key" mapstructure:"api_key"`
	Model          string  `json:"model" mapstructure:"model"`
	MaxTokens      int     `json:"max_tokens" mapstructure:"max_tokens"`
	Temperature    float64 `json:"temperature" mapstructure:"temperature"`
	EmbeddingModel string  `json:"embedding_model" mapstructure:"embedding_model"`
}

// ToolsConfig holds tool execution configuration
type ToolsConfig struct {
	// Default per-call timeout in seconds
	DefaultTimeoutSeconds int `json:"default_timeout_seconds" mapstructure:"default_timeout_seconds"`

	// Per-category timeout overrides in seconds (e.g. voice transcription
	// needs a longer budget than a price lookup)
	CategoryTimeoutSeconds map[string]int `json:"category_timeout_seconds" mapstructure:"category_timeout_seconds"`

	// Live data API keys (tools degrade to unavailable-data messages when empty)
	WeatherAPIKey   string `json:"weather_api_key" mapstructure:"weather_api_key"`
	NewsAPIKey      string `json:"news_api_key" mapstructure:"news_api_key"`
	AlphaVantageKey string `json:"alpha_vantage_key" mapstructure:"alpha_vantage_key"`

	// Cron expression for the live-data quote cache refresher
	RefreshSchedule string `json:"refresh_schedule" mapstructure:"refresh_schedule"`

	// Enable the headless-browser capture tool
	BrowserEnabled bool `json:"browser_enabled" mapstructure:"browser_enabled"`
}

// KnowledgeConfig holds vector knowledge base configuration
type KnowledgeConfig struct {
	DBPath  string `json:"db_path" mapstructure:"db_path"`
	DocsDir string `json:"docs_dir" mapstructure:"docs_dir"`
}

// GatewayConfig holds WebSocket/HTTP gateway configuration
type GatewayConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider:       "openai",
			Model:          "gpt-4o",
			MaxTokens:      4096,
			Temperature:    0.7,
			EmbeddingModel: "text-embedding-3-small",
		},
		Tools: ToolsConfig{
			DefaultTimeoutSeconds: 30,
			CategoryTimeoutSeconds: map[string]int{
				"voice": 120,
			},
			RefreshSchedule: "@every 5m",
		},
		Knowledge: KnowledgeConfig{
			DBPath:  "./data/knowledge.db",
			DocsDir: "./data/docs",
		},
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 8765,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			Redaction: true,
		},
		DataDir: "./data",
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}

	if c.AI.Model == "" {
		return fmt.Errorf("AI model cannot be empty")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1")
	}

	if c.Tools.DefaultTimeoutSeconds <= 0 {
		return fmt.Errorf("default tool timeout must be positive")
	}
	for category, seconds := range c.Tools.CategoryTimeoutSeconds {
		if seconds <= 0 {
			return fmt.Errorf("timeout for category %s must be positive", category)
		}
	}

	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway port: %d", c.Gateway.Port)
	}

	return nil
}

// DefaultToolTimeout returns the default per-call timeout as a duration
func (c *Config) DefaultToolTimeout() time.Duration {
	return time.Duration(c.Tools.DefaultTimeoutSeconds) * time.Second
}

// CategoryTimeouts returns the per-category timeout overrides as durations
func (c *Config) CategoryTimeouts() map[string]time.Duration {
	timeouts := make(map[string]time.Duration, len(c.Tools.CategoryTimeoutSeconds))
	for category, seconds := range c.Tools.CategoryTimeoutSeconds {
		timeouts[category] = time.Duration(seconds) * time.Second
	}
	return timeouts
}
