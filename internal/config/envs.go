// Package config loads simulator settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the simulator's configuration values.
type Config struct {
	DBPath    string        // SQLite cache file; empty disables the cache
	Seed      int64         // 0 picks a random seed
	Width     int           // generated maze width
	Height    int           // generated maze height
	Agents    int           // agents spawned at start
	Tick      time.Duration // base interval between an agent's moves
	Think     time.Duration // thinking pause before a deliberate move
	Speed     float64       // global playback multiplier
	TiersFile string        // YAML or JSON tier config; empty uses Preset
	Preset    string        // built-in or cached personality name
	LogLevel  slog.Level
	MaxTicks  uint64 // scheduler tasks before the run is cut off; 0 means no limit
	MazeID    string // cached maze to load instead of generating
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn(".env file could not be loaded", "error", err)
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (Config, error) {
	var (
		cfg  Config
		errs []string
	)
	fail := func(key string, err error) {
		errs = append(errs, fmt.Sprintf("%s: %v", key, err))
	}

	cfg.DBPath = getEnvWithDefault("MAZESIM_DB_PATH", "data/mazesim.db")
	cfg.TiersFile = getEnvWithDefault("MAZESIM_TIERS_FILE", "")
	cfg.Preset = getEnvOrDefault("MAZESIM_PRESET", "explorer")
	cfg.MazeID = getEnvWithDefault("MAZESIM_MAZE_ID", "")

	var err error
	if cfg.Seed, err = getEnvAsInt64("MAZESIM_SEED", 0); err != nil {
		fail("MAZESIM_SEED", err)
	}
	if cfg.Width, err = getEnvAsInt("MAZESIM_WIDTH", 15); err != nil {
		fail("MAZESIM_WIDTH", err)
	}
	if cfg.Height, err = getEnvAsInt("MAZESIM_HEIGHT", 15); err != nil {
		fail("MAZESIM_HEIGHT", err)
	}
	if cfg.Agents, err = getEnvAsInt("MAZESIM_AGENTS", 3); err != nil {
		fail("MAZESIM_AGENTS", err)
	}
	tickMS, err := getEnvAsInt("MAZESIM_TICK_MS", 250)
	if err != nil {
		fail("MAZESIM_TICK_MS", err)
	}
	cfg.Tick = time.Duration(tickMS) * time.Millisecond
	thinkMS, err := getEnvAsInt("MAZESIM_THINK_MS", 400)
	if err != nil {
		fail("MAZESIM_THINK_MS", err)
	}
	cfg.Think = time.Duration(thinkMS) * time.Millisecond
	if cfg.Speed, err = getEnvAsFloat("MAZESIM_SPEED", 1.0); err != nil {
		fail("MAZESIM_SPEED", err)
	}
	maxTicks, err := getEnvAsInt64("MAZESIM_MAX_TICKS", 5000)
	if err != nil {
		fail("MAZESIM_MAX_TICKS", err)
	}
	if maxTicks > 0 {
		cfg.MaxTicks = uint64(maxTicks)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvOrDefault("MAZESIM_LOG_LEVEL", "info"))); err != nil {
		fail("MAZESIM_LOG_LEVEL", err)
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that parse but make no sense.
func (c Config) Validate() error {
	switch {
	case c.Agents < 0:
		return fmt.Errorf("config: MAZESIM_AGENTS must not be negative, got %d", c.Agents)
	case c.Tick <= 0:
		return fmt.Errorf("config: MAZESIM_TICK_MS must be positive, got %v", c.Tick)
	case c.Think < 0:
		return fmt.Errorf("config: MAZESIM_THINK_MS must not be negative, got %v", c.Think)
	case !(c.Speed > 0):
		return fmt.Errorf("config: MAZESIM_SPEED must be positive, got %v", c.Speed)
	}
	return nil
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvOrDefault is getEnvWithDefault for keys where an empty value means unset.
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(strings.TrimSpace(value))
}

func getEnvAsInt64(key string, defaultValue int64) (int64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}
