package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, 30, cfg.Tools.DefaultTimeoutSeconds)
	assert.Equal(t, 120, cfg.Tools.CategoryTimeoutSeconds["voice"])
	assert.Equal(t, 8765, cfg.Gateway.Port)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unsupported provider",
			mutate:  func(c *Config) { c.AI.Provider = "cohere" },
			wantErr: "unsupported AI provider",
		},
		{
			name:    "empty model",
			mutate:  func(c *Config) { c.AI.Model = "" },
			wantErr: "model cannot be empty",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.AI.Temperature = 1.5 },
			wantErr: "temperature",
		},
		{
			name:    "zero default timeout",
			mutate:  func(c *Config) { c.Tools.DefaultTimeoutSeconds = 0 },
			wantErr: "timeout must be positive",
		},
		{
			name:    "negative category timeout",
			mutate:  func(c *Config) { c.Tools.CategoryTimeoutSeconds["vision"] = -5 },
			wantErr: "category vision",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Gateway.Port = 0 },
			wantErr: "invalid gateway port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_TimeoutHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tools.DefaultTimeoutSeconds = 45
	cfg.Tools.CategoryTimeoutSeconds = map[string]int{"voice": 120, "vision": 60}

	assert.Equal(t, 45*time.Second, cfg.DefaultToolTimeout())

	timeouts := cfg.CategoryTimeouts()
	assert.Equal(t, 120*time.Second, timeouts["voice"])
	assert.Equal(t, 60*time.Second, timeouts["vision"])
	assert.Len(t, timeouts, 2)
}
