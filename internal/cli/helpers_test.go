package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/linkdrop/internal/app"
	"github.com/dmitrijs2005/linkdrop/internal/keystore"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/transport"
)

const peerNpub = "npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg"

// device is one simulated install: a data directory, a key store and the
// transports its commands dialed.
type device struct {
	dir  string
	keys *keystore.Memory

	mu    sync.Mutex
	conns []*transport.Fake
}

func newDevice(t *testing.T) *device {
	t.Helper()
	return &device{dir: t.TempDir(), keys: keystore.NewMemory()}
}

func (d *device) dial(_ string, _ logging.Logger) (app.Connection, error) {
	f := transport.NewFake(false)
	d.mu.Lock()
	d.conns = append(d.conns, f)
	d.mu.Unlock()
	return f, nil
}

func (d *device) published() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.conns {
		n += len(c.Published())
	}
	return n
}

func (d *device) flags() []string {
	return []string{
		"--db", filepath.Join(d.dir, "linkdrop.db"),
		"--container-dir", filepath.Join(d.dir, "shared"),
		"--keys-dir", filepath.Join(d.dir, "keys"),
		"--thumbnail-dir", filepath.Join(d.dir, "thumbs"),
		"--readiness-timeout", "2s",
		"--readiness-poll", "10ms",
		"--log-level", "error",
	}
}

func execute(cmd *cobra.Command, stdin string, args []string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// run executes the main CLI on d.
func (d *device) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{AppOptions: []app.Option{app.WithKeyStore(d.keys), app.WithDialer(d.dial)}}
	return execute(NewRootCommand(opts), stdin, append(args, d.flags()...))
}

func (d *device) mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := d.run(t, stdin, args...)
	require.NoError(t, err, "linkdrop %v", args)
	return out
}

// share executes the extension binary on d.
func (d *device) share(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(NewShareCommand(), "", append(args, d.flags()...))
}

func newSecret(t *testing.T) (sk, pk string) {
	t.Helper()
	sk = nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)
	return sk, pk
}
