// internal/config/config.go
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the client configuration, loaded from the environment. A .env
// file in the working directory is honored when present.
type Config struct {
	// LedgerURL is the websocket endpoint of the ledger gateway.
	LedgerURL string `env:"ORANGEJACK_LEDGER_URL" envDefault:"ws://localhost:8422/ws"`

	// OwnerAddress is the game owner identity. Sessions matching it
	// (case-insensitively) unlock the admin surface.
	OwnerAddress string `env:"ORANGEJACK_OWNER_ADDRESS"`

	// KeyFile holds the local signing key. Created on first run.
	KeyFile string `env:"ORANGEJACK_KEY_FILE" envDefault:"orangejack.key"`

	// Profile namespaces the persisted session in the store, so several
	// identities can coexist on one machine.
	Profile string `env:"ORANGEJACK_PROFILE" envDefault:"default"`

	// RedisAddr enables the Redis-backed session store when set. Empty
	// means sessions live only for the process lifetime.
	RedisAddr     string `env:"ORANGEJACK_REDIS_ADDR"`
	RedisPassword string `env:"ORANGEJACK_REDIS_PASSWORD"`
	RedisDB       int    `env:"ORANGEJACK_REDIS_DB" envDefault:"0"`

	// SessionTTL bounds the signed session token presented on dial.
	SessionTTL string `env:"ORANGEJACK_SESSION_TTL" envDefault:"24h"`

	LogLevel string `env:"ORANGEJACK_LOG_LEVEL" envDefault:"info"`

	// Fake runs against the built-in in-memory ledger instead of a live
	// endpoint. Useful for trying the client offline.
	Fake bool `env:"ORANGEJACK_FAKE" envDefault:"false"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
