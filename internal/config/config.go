// Package config loads process configuration from the environment, with an
// optional .env file applied first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	Database Database `envPrefix:"DB_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Log      Log      `envPrefix:"LOG_"`
	Game     Game     `envPrefix:"GAME_"`
	HTTP     HTTP     `envPrefix:"HTTP_"`
	Worker   Worker   `envPrefix:"WORKER_"`
}

// Database selects the SQL backend. Driver is "sqlite" or "postgres".
type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"data/dominion.db"`
}

// Redis configures the valkey-backed lock and turn stream. An empty Addr
// keeps both in-process.
type Redis struct {
	Addr         string        `env:"ADDR"`
	Password     string        `env:"PASSWORD"`
	LockPrefix   string        `env:"LOCK_PREFIX" envDefault:"dominion:lock:"`
	LockTTL      time.Duration `env:"LOCK_TTL" envDefault:"2m"`
	Stream       string        `env:"STREAM" envDefault:"dominion:turns"`
	StreamMaxLen int64         `env:"STREAM_MAXLEN" envDefault:"10000"`
}

// Enabled reports whether a valkey server is configured.
func (r Redis) Enabled() bool { return r.Addr != "" }

// Log configures the process logger. Format is "text" or "json"; a File
// enables rotation through lumberjack in addition to stdout.
type Log struct {
	Level      string `env:"LEVEL" envDefault:"info"`
	Format     string `env:"FORMAT" envDefault:"text"`
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"14"`
}

// Game holds defaults for new games.
type Game struct {
	Empires         int `env:"EMPIRES" envDefault:"10"`
	TurnLimit       int `env:"TURN_LIMIT" envDefault:"200"`
	ProtectionTurns int `env:"PROTECTION_TURNS" envDefault:"20"`
}

// HTTP configures the API server.
type HTTP struct {
	Addr         string        `env:"ADDR" envDefault:":8080"`
	AdminKey     string        `env:"ADMIN_KEY"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
}

// Worker configures the background turn worker.
type Worker struct {
	Interval    time.Duration `env:"INTERVAL" envDefault:"1m"`
	Concurrency int           `env:"CONCURRENCY" envDefault:"4"`
}

// Load applies .env files that exist, then parses the environment.
func Load(dotenv ...string) (Config, error) {
	if err := loadDotenv(dotenv...); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "DOMINION_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks values the env parser cannot.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DOMINION_DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("DOMINION_DB_DSN is required"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("DOMINION_LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}
	if c.Redis.LockTTL <= 0 {
		errs = append(errs, errors.New("DOMINION_REDIS_LOCK_TTL must be positive"))
	}
	if c.Game.Empires < 2 || c.Game.Empires > 100 {
		errs = append(errs, fmt.Errorf("DOMINION_GAME_EMPIRES must be between 2 and 100, got %d", c.Game.Empires))
	}
	if c.Game.TurnLimit <= 0 {
		errs = append(errs, errors.New("DOMINION_GAME_TURN_LIMIT must be positive"))
	}
	if c.Worker.Interval <= 0 {
		errs = append(errs, errors.New("DOMINION_WORKER_INTERVAL must be positive"))
	}
	if c.Worker.Concurrency < 1 {
		errs = append(errs, errors.New("DOMINION_WORKER_CONCURRENCY must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
