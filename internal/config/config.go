// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/steprace/backend/internal/game"
)

type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Game    GameConfig
	Redis   RedisConfig
}

type ServerConfig struct {
	// Addr is the HTTP listen address.
	Addr string
}

type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string
	// Format is the log output format: "json" or "console".
	Format string
}

type GameConfig struct {
	Goal       int
	Choices    []int
	RosterSize int
}

// Settings converts the game parameters to the engine's settings type.
func (g GameConfig) Settings() game.Settings {
	return game.Settings{Goal: g.Goal, Choices: g.Choices, RosterSize: g.RosterSize}
}

type RedisConfig struct {
	// Addr is the Redis address for the leaderboard; empty disables it.
	Addr string
}

// Load reads STEPRACE_* environment variables, after loading .env if one
// exists, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr: getenv("STEPRACE_ADDR", ":8080"),
		},
		Logging: LoggingConfig{
			Level:  getenv("STEPRACE_LOG_LEVEL", "info"),
			Format: getenv("STEPRACE_LOG_FORMAT", "json"),
		},
		Redis: RedisConfig{
			Addr: getenv("STEPRACE_REDIS_ADDR", ""),
		},
	}

	goal, err := getenvInt("STEPRACE_GOAL", 12)
	if err != nil {
		return nil, err
	}
	rosterSize, err := getenvInt("STEPRACE_ROSTER_SIZE", 4)
	if err != nil {
		return nil, err
	}
	choices, err := parseChoices(getenv("STEPRACE_CHOICES", "1,3,5"))
	if err != nil {
		return nil, err
	}
	cfg.Game = GameConfig{Goal: goal, Choices: choices, RosterSize: rosterSize}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Game.Goal < 1 {
		return fmt.Errorf("goal must be positive, got %d", c.Game.Goal)
	}
	if c.Game.RosterSize < 2 {
		return fmt.Errorf("roster size must be at least 2, got %d", c.Game.RosterSize)
	}
	if len(c.Game.Choices) == 0 {
		return fmt.Errorf("choice set must not be empty")
	}
	seen := make(map[int]bool, len(c.Game.Choices))
	for _, v := range c.Game.Choices {
		// Positive values only: the engine reserves zero for "no choice yet".
		if v < 1 {
			return fmt.Errorf("choice values must be positive, got %d", v)
		}
		if seen[v] {
			return fmt.Errorf("duplicate choice value %d", v)
		}
		seen[v] = true
	}
	return nil
}

func parseChoices(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	choices := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parsing choice %q: %w", p, err)
		}
		choices = append(choices, v)
	}
	return choices, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}
