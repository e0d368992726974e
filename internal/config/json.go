package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/linkdrop/internal/timex"
)

// JsonConfig is a DTO used only for unmarshalling. Pointer fields tell an
// absent key apart from an explicit zero value.
type JsonConfig struct {
	DatabasePath          *string         `json:"database_path"`
	ContainerDir          *string         `json:"container_dir"`
	KeysDir               *string         `json:"keys_dir"`
	ThumbnailDir          *string         `json:"thumbnail_dir"`
	Relays                []string        `json:"relays"`
	ReadinessTimeout      *timex.Duration `json:"readiness_timeout"`
	ReadinessPollInterval *timex.Duration `json:"readiness_poll_interval"`
	PublishTimeout        *timex.Duration `json:"publish_timeout"`
	SendMode              *string         `json:"send_mode"`
	LogLevel              *string         `json:"log_level"`
}

// loadJSON overlays cfg with the keys present in the file at path.
func loadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.ContainerDir, jc.ContainerDir)
	setString(&cfg.KeysDir, jc.KeysDir)
	setString(&cfg.ThumbnailDir, jc.ThumbnailDir)
	setString(&cfg.SendMode, jc.SendMode)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.Relays != nil {
		cfg.Relays = append([]string(nil), jc.Relays...)
	}
	if jc.ReadinessTimeout != nil {
		cfg.ReadinessTimeout = jc.ReadinessTimeout.Duration
	}
	if jc.ReadinessPollInterval != nil {
		cfg.ReadinessPollInterval = jc.ReadinessPollInterval.Duration
	}
	if jc.PublishTimeout != nil {
		cfg.PublishTimeout = jc.PublishTimeout.Duration
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
