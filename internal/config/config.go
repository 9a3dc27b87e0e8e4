package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// RedisConfig selects and addresses the Redis backend for turn-input
// buffering. When disabled, the in-memory store is used.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type GameConfig struct {
	TurnDurationSeconds int `json:"turn_duration_seconds"`
	// SynthesisTTLSeconds bounds how long a lone buffered action may
	// outlive its turn; it should exceed the turn duration slightly.
	SynthesisTTLSeconds int         `json:"synthesis_ttl_seconds"`
	Redis               RedisConfig `json:"redis"`
}

const (
	defaultTurnDurationSeconds = 30
	// Leak-guard slack over the turn duration.
	synthesisTTLSlackSeconds = 2
)

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		c.applyDefaults()
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration, or safe defaults if no
// config file was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration.
func Default() *GameConfig {
	c := &GameConfig{}
	c.applyDefaults()
	return c
}

func (c *GameConfig) applyDefaults() {
	if c.TurnDurationSeconds <= 0 {
		c.TurnDurationSeconds = defaultTurnDurationSeconds
	}
	if c.SynthesisTTLSeconds <= 0 {
		c.SynthesisTTLSeconds = c.TurnDurationSeconds + synthesisTTLSlackSeconds
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
}

// TurnDuration returns the per-turn wall-clock budget.
func (c *GameConfig) TurnDuration() time.Duration {
	return time.Duration(c.TurnDurationSeconds) * time.Second
}

// SynthesisTTL returns the expiry applied to buffered turn input.
func (c *GameConfig) SynthesisTTL() time.Duration {
	return time.Duration(c.SynthesisTTLSeconds) * time.Second
}
