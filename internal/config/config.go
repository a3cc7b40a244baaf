// Package config loads server settings from the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jaminalder/gomoku/internal/domain"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds server configuration.
type Config struct {
	Addr            string        `env:"GOMOKU_ADDR"             envDefault:":8080"`
	BoardSize       int           `env:"GOMOKU_BOARD_SIZE"       envDefault:"15"`
	Heartbeat       time.Duration `env:"GOMOKU_HEARTBEAT"        envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"GOMOKU_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load parses the environment, then flags in args, then validates.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.IntVar(&cfg.BoardSize, "size", cfg.BoardSize, "default board size (5-19)")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges the engine leaves to its callers.
func (c Config) Validate() error {
	if c.BoardSize < domain.MinSize || c.BoardSize > domain.MaxSize {
		return fmt.Errorf("%w: board size %d outside %d-%d", ErrInvalid, c.BoardSize, domain.MinSize, domain.MaxSize)
	}
	if c.Heartbeat <= 0 {
		return fmt.Errorf("%w: heartbeat must be positive", ErrInvalid)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalid)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalid)
	}
	return nil
}
