package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	FlagConfig           = "config"
	FlagDatabase         = "db"
	FlagContainerDir     = "container-dir"
	FlagKeysDir          = "keys-dir"
	FlagThumbnailDir     = "thumbnail-dir"
	FlagRelay            = "relay"
	FlagReadinessTimeout = "readiness-timeout"
	FlagReadinessPoll    = "readiness-poll"
	FlagPublishTimeout   = "publish-timeout"
	FlagSendMode         = "send-mode"
	FlagLogLevel         = "log-level"
)

// BindFlags registers every config flag on fs. Defaults shown in help come
// from LoadDefaults; a flag only overrides the config when it was set.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.String(FlagDatabase, d.DatabasePath, "SQLite database path")
	fs.String(FlagContainerDir, d.ContainerDir, "shared container directory")
	fs.String(FlagKeysDir, d.KeysDir, "per-account key directory")
	fs.String(FlagThumbnailDir, d.ThumbnailDir, "cached thumbnail directory")
	fs.StringSlice(FlagRelay, nil, "relay URL to add on start (repeatable)")
	fs.Duration(FlagReadinessTimeout, d.ReadinessTimeout, "how long a send waits for relays")
	fs.Duration(FlagReadinessPoll, d.ReadinessPollInterval, "relay readiness poll interval")
	fs.Duration(FlagPublishTimeout, d.PublishTimeout, "deadline for a single publish")
	fs.String(FlagSendMode, d.SendMode, `"confirm" or "local-first"`)
	fs.String(FlagLogLevel, d.LogLevel, "debug, info, warn or error")
}

// applyFlags copies explicitly set flags into cfg. Flags never registered
// on fs are ignored.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagDatabase:
			cfg.DatabasePath, err = fs.GetString(f.Name)
		case FlagContainerDir:
			cfg.ContainerDir, err = fs.GetString(f.Name)
		case FlagKeysDir:
			cfg.KeysDir, err = fs.GetString(f.Name)
		case FlagThumbnailDir:
			cfg.ThumbnailDir, err = fs.GetString(f.Name)
		case FlagRelay:
			cfg.Relays, err = fs.GetStringSlice(f.Name)
		case FlagReadinessTimeout:
			cfg.ReadinessTimeout, err = fs.GetDuration(f.Name)
		case FlagReadinessPoll:
			cfg.ReadinessPollInterval, err = fs.GetDuration(f.Name)
		case FlagPublishTimeout:
			cfg.PublishTimeout, err = fs.GetDuration(f.Name)
		case FlagSendMode:
			cfg.SendMode, err = fs.GetString(f.Name)
		case FlagLogLevel:
			cfg.LogLevel, err = fs.GetString(f.Name)
		}
		if err != nil {
			err = fmt.Errorf("failed to read flag %s: %w", f.Name, err)
		}
	})
	return err
}
