package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/spf13/pflag"
)

const (
	SendModeConfirm    = "confirm"
	SendModeLocalFirst = "local-first"
)

// Config holds runtime settings shared by the main CLI and the share
// extension binary.
//
// Paths default to a directory under os.UserConfigDir. ContainerDir is the
// only location both processes must agree on.
type Config struct {
	DatabasePath string
	ContainerDir string
	KeysDir      string
	ThumbnailDir string

	// Relays are added to the relay list on start if missing.
	Relays []string

	ReadinessTimeout      time.Duration
	ReadinessPollInterval time.Duration
	PublishTimeout        time.Duration

	SendMode string
	LogLevel string
}

// BaseDir returns the default root for on-device state.
func BaseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".linkdrop"
	}
	return filepath.Join(dir, "linkdrop")
}

// LoadDefaults populates c with defaults rooted at BaseDir.
func (c *Config) LoadDefaults() {
	c.loadDefaultsAt(BaseDir())
}

func (c *Config) loadDefaultsAt(base string) {
	c.DatabasePath = filepath.Join(base, "linkdrop.db")
	c.ContainerDir = filepath.Join(base, "shared")
	c.KeysDir = filepath.Join(base, "keys")
	c.ThumbnailDir = filepath.Join(base, "thumbnails")
	c.Relays = nil
	c.ReadinessTimeout = 10 * time.Second
	c.ReadinessPollInterval = 250 * time.Millisecond
	c.PublishTimeout = 15 * time.Second
	c.SendMode = SendModeConfirm
	c.LogLevel = "info"
}

// Validate reports settings that would make the binaries misbehave.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"database path": c.DatabasePath,
		"container dir": c.ContainerDir,
		"keys dir":      c.KeysDir,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s: %w", name, common.ErrEmptyField)
		}
	}
	if c.ReadinessTimeout <= 0 || c.ReadinessPollInterval <= 0 || c.PublishTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive: %w", common.ErrValidation)
	}
	switch c.SendMode {
	case SendModeConfirm, SendModeLocalFirst:
	default:
		return fmt.Errorf("unknown send mode %q: %w", c.SendMode, common.ErrValidation)
	}
	return nil
}

// Load builds a Config from defaults, the JSON file named by the config
// flag (if any) and then the flags the user actually set on fs.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to read config flag: %w", err)
	}
	if path != "" {
		if err := loadJSON(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
