// Package config loads settings for the wordrush-bot binary: a YAML file
// for the static shape, environment variables for deploy-time overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the bot binary needs.
type Config struct {
	ServerURL string `yaml:"server_url"`
	Username  string `yaml:"username"`
	Avatar    string `yaml:"avatar"`

	// JoinCode joins an existing room when set; otherwise the bot creates
	// one with the game settings below.
	JoinCode string `yaml:"join_code"`

	Game struct {
		Rounds          int      `yaml:"rounds"`
		Categories      []string `yaml:"categories"`
		ExcludedLetters []string `yaml:"excluded_letters"`
	} `yaml:"game"`

	LogLevel string `yaml:"log_level"`
}

// Load reads the YAML file at path, then applies environment overrides.
// A missing file is fine: env and defaults carry the whole config.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.ServerURL = getEnv("WORDRUSH_SERVER_URL", cfg.ServerURL)
	cfg.Username = getEnv("WORDRUSH_USERNAME", cfg.Username)
	cfg.Avatar = getEnv("WORDRUSH_AVATAR", cfg.Avatar)
	cfg.JoinCode = getEnv("WORDRUSH_JOIN_CODE", cfg.JoinCode)
	cfg.LogLevel = getEnv("WORDRUSH_LOG_LEVEL", cfg.LogLevel)
	cfg.Game.Rounds = getEnvAsInt("WORDRUSH_ROUNDS", cfg.Game.Rounds)

	cfg.applyDefaults()

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url is required (WORDRUSH_SERVER_URL)")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("username is required (WORDRUSH_USERNAME)")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Game.Rounds == 0 {
		c.Game.Rounds = 3
	}
	if len(c.Game.Categories) == 0 {
		c.Game.Categories = []string{"animal", "city", "food"}
	}
	if c.Avatar == "" {
		c.Avatar = "bot"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
