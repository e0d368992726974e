package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_loadJSON(t *testing.T) {
	dir := t.TempDir()

	t.Run("overlays present keys", func(t *testing.T) {
		path := writeTempJSON(t, dir, "full.json", map[string]any{
			"database_path":           "/d/db",
			"container_dir":           "/d/shared",
			"keys_dir":                "/d/keys",
			"thumbnail_dir":           "/d/thumbs",
			"relays":                  []string{"wss://r1.example"},
			"readiness_timeout":       "2s",
			"readiness_poll_interval": 50_000_000,
			"publish_timeout":         "4s",
			"send_mode":               "local-first",
			"log_level":               "warn",
		})

		cfg := &Config{}
		require.NoError(t, loadJSON(cfg, path))

		want := &Config{
			DatabasePath:          "/d/db",
			ContainerDir:          "/d/shared",
			KeysDir:               "/d/keys",
			ThumbnailDir:          "/d/thumbs",
			Relays:                []string{"wss://r1.example"},
			ReadinessTimeout:      2 * time.Second,
			ReadinessPollInterval: 50 * time.Millisecond,
			PublishTimeout:        4 * time.Second,
			SendMode:              "local-first",
			LogLevel:              "warn",
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Fatalf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("absent keys keep previous values", func(t *testing.T) {
		path := writeTempJSON(t, dir, "partial.json", map[string]any{
			"log_level": "error",
		})

		cfg := &Config{}
		cfg.loadDefaultsAt("/base")
		require.NoError(t, loadJSON(cfg, path))

		assert.Equal(t, "error", cfg.LogLevel)
		assert.Equal(t, filepath.Join("/base", "linkdrop.db"), cfg.DatabasePath)
		assert.Equal(t, 10*time.Second, cfg.ReadinessTimeout)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		err := loadJSON(&Config{}, bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeTempJSON(t, dir, "dur.json", map[string]any{
			"publish_timeout": "soon",
		})
		require.Error(t, loadJSON(&Config{}, path))
	})
}
