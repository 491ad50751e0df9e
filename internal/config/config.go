// Package config loads gateway configuration from the environment.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"knockoutgames/gateway/internal/apperr"
)

// Config is the full gateway configuration.
type Config struct {
	// MasterSecret seeds every derived round secret. Required; the process
	// refuses to start without it, and it never leaves the process.
	MasterSecret string `env:"KOG_MASTER_SECRET"`

	// ListenAddr is the HTTP API bind address.
	ListenAddr string `env:"KOG_LISTEN_ADDR" envDefault:":8080"`

	// CometRPC is the ledger node's RPC endpoint.
	CometRPC string `env:"KOG_COMET_RPC" envDefault:"http://localhost:26657"`

	// JournalPath is the SQLite journal file; empty disables journaling.
	JournalPath string `env:"KOG_JOURNAL_PATH" envDefault:"kogd.db"`
}

// Load reads an optional .env file, then the environment. A missing master
// secret is a configuration error.
func Load() (Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, apperr.Wrap(apperr.KindConfiguration, err, "parse environment")
	}
	if cfg.MasterSecret == "" {
		return Config{}, apperr.Configurationf("KOG_MASTER_SECRET is required")
	}
	return cfg, nil
}
