package keystore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/linkdrop/internal/filex"
)

// Dir keeps each secret in its own 0600 file inside a private directory.
// File names are digests of the account name so arbitrary account strings
// are safe to use.
type Dir struct {
	path string
}

func NewDir(path string) (*Dir, error) {
	abs, err := filex.EnsureDir(path, 0o700)
	if err != nil {
		return nil, err
	}
	return &Dir{path: abs}, nil
}

func (d *Dir) file(account string) string {
	sum := sha256.Sum256([]byte(account))
	return filepath.Join(d.path, hex.EncodeToString(sum[:])+".key")
}

func (d *Dir) Load(_ context.Context, account string) ([]byte, error) {
	b, err := os.ReadFile(d.file(account))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", account, err)
	}
	return b, nil
}

func (d *Dir) Store(_ context.Context, account string, secret []byte) error {
	if err := filex.WriteFileAtomic(d.file(account), secret, 0o600); err != nil {
		return fmt.Errorf("store key %s: %w", account, err)
	}
	return nil
}

func (d *Dir) Delete(_ context.Context, account string) error {
	err := os.Remove(d.file(account))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete key %s: %w", account, err)
	}
	return nil
}
