package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultConfigFile is looked up in the home directory when --config is not given.
const DefaultConfigFile = ".stellarctl.toml"

// Config holds per-user defaults for stellarctl.
type Config struct {
	// User is the display name the mine tab matches against.
	User string `toml:"user"`

	PageSize    int `toml:"page_size"`
	RecentLimit int `toml:"recent_limit"`

	// Secret signs tokens minted by the token command.
	Secret string `toml:"secret"`
}

// LoadConfig reads the config at path. An empty path falls back to the
// default location, which may be absent.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, DefaultConfigFile)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if cfg.PageSize < 0 || cfg.RecentLimit < 0 {
		return nil, fmt.Errorf("read %s: page_size and recent_limit must not be negative", path)
	}
	return cfg, nil
}
