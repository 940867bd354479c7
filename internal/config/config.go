// Package config layers the runtime configuration from a YAML file,
// LANGCARD_* environment variables, and command line flags, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds everything the process needs to run.
type Config struct {
	DBPath        string        `koanf:"db_path" validate:"required"`
	ListenAddr    string        `koanf:"listen_addr" validate:"required,hostname_port"`
	ReposDir      string        `koanf:"repos_dir" validate:"required"`
	AutoSyncEvery time.Duration `koanf:"auto_sync_every" validate:"min=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// RegisterFlags declares the configuration flags on a flag set. Flag names
// use dashes; they map onto the underscored config keys.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("config", "", "path to a YAML config file")
	f.String("db-path", "langcard.db", "path to the SQLite database file")
	f.String("listen-addr", "localhost:8080", "address the web server listens on")
	f.String("repos-dir", "repos", "directory holding checkouts of git sources")
	f.Duration("auto-sync-every", 0, "interval between automatic syncs (0 disables)")
}

// Load resolves the configuration from the parsed flag set. A config file is
// only required when --config names one explicitly.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// LANGCARD_DB_PATH=... overrides the file.
	if err := k.Load(env.Provider("LANGCARD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LANGCARD_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	// Flags win; unset flags only contribute their defaults for keys nothing
	// else provided.
	if err := k.Load(posflag.ProviderWithValue(f, ".", k, func(key, value string) (string, interface{}) {
		return strings.ReplaceAll(key, "-", "_"), value
	}), nil); err != nil {
		return nil, fmt.Errorf("loading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// EnsureDirs creates the directories the config points at.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.ReposDir, 0o755); err != nil {
		return fmt.Errorf("creating repos dir %s: %w", c.ReposDir, err)
	}
	return nil
}
