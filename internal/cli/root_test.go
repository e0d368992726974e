package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/linkdrop/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(nil)
	require.NotNil(t, cmd)
	assert.Equal(t, "linkdrop", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	commands := [][]string{
		{"login"}, {"logout"}, {"whoami"},
		{"contact", "add"}, {"contact", "update"}, {"contact", "remove"}, {"contact", "list"},
		{"relay", "add"}, {"relay", "remove"}, {"relay", "enable"}, {"relay", "disable"},
		{"relay", "list"}, {"relay", "status"},
		{"send"}, {"reply"}, {"posts"}, {"replies"}, {"read"}, {"archive"}, {"drain"}, {"snapshot"}, {"version"},
	}
	for _, path := range commands {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, name := range []string{"config", "db", "container-dir", "keys-dir", "relay", "send-mode", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
}

func TestLoadConfig_InheritedFlags(t *testing.T) {
	var got *config.Config
	root := &cobra.Command{Use: "root"}
	config.BindFlags(root.PersistentFlags())
	group := &cobra.Command{Use: "group"}
	group.AddCommand(&cobra.Command{
		Use: "leaf",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			got = cfg
			return err
		},
	})
	root.AddCommand(group)

	db := filepath.Join(t.TempDir(), "x.db")
	_, err := execute(root, "", []string{
		"group", "leaf",
		"--db", db,
		"--container-dir", "/tmp/linkdrop-shared",
		"--relay", "wss://a.example", "--relay", "wss://b.example",
		"--send-mode", config.SendModeLocalFirst,
		"--publish-timeout", "3s",
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, db, got.DatabasePath)
	assert.Equal(t, "/tmp/linkdrop-shared", got.ContainerDir)
	assert.Equal(t, []string{"wss://a.example", "wss://b.example"}, got.Relays)
	assert.Equal(t, config.SendModeLocalFirst, got.SendMode)
	assert.Equal(t, 3*time.Second, got.PublishTimeout)
}

func TestFlagsSelectDataLocation(t *testing.T) {
	d := newDevice(t)

	assert.Equal(t, "not logged in\n", d.mustRun(t, "", "whoami"))
	_, err := os.Stat(filepath.Join(d.dir, "linkdrop.db"))
	require.NoError(t, err)

	_, err = d.share(t, "contacts")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(d.dir, "shared"))
	require.NoError(t, err)
}
