package sharedstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/cryptox"
	"github.com/dmitrijs2005/linkdrop/internal/filex"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
)

const (
	SnapshotFile = "contacts.snapshot"
	QueueFile    = "pending_shares.queue"
	KeyFile      = "shared.key"
	LockFile     = "shared.lock"
)

var (
	ErrInvalidSharedKey     = fmt.Errorf("%w: invalid shared key", common.ErrIPC)
	ErrLock                 = fmt.Errorf("%w: lock failed", common.ErrIPC)
	ErrContainerUnavailable = fmt.Errorf("%w: container unavailable", common.ErrIPC)
	ErrCorruptPayload       = fmt.Errorf("%w: payload cannot be opened", common.ErrIPC)
)

// BackupExcluder marks a file so platform backups skip it.
type BackupExcluder func(path string) error

type Option func(*Store)

func WithBackupExclusion(fn BackupExcluder) Option {
	return func(s *Store) { s.excludeFromBackup = fn }
}

type Store struct {
	dir string
	log logging.Logger

	// mu serialises goroutines of this process before they reach the
	// file lock.
	mu sync.Mutex

	keyMu sync.Mutex
	key   []byte

	excludeFromBackup BackupExcluder
}

// Open prepares the container directory. The key is loaded lazily.
func Open(dir string, log logging.Logger, opts ...Option) (*Store, error) {
	abs, err := filex.EnsureDir(dir, 0o700)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainerUnavailable, err)
	}
	s := &Store{
		dir:               abs,
		log:               log.With("container", abs),
		excludeFromBackup: func(string) error { return nil },
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// withLock runs fn while holding the container lock. The lock is a
// blocking exclusive flock and is released on every return path.
func (s *Store) withLock(ctx context.Context, fn func() error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fl := flock.New(s.path(LockFile))
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("%w: %w", ErrLock, err)
	}
	s.log.Debug(ctx, "container lock acquired")
	defer func() {
		if uerr := fl.Unlock(); uerr != nil {
			s.log.Error(ctx, "failed to release container lock", "error", uerr)
			if err == nil {
				err = fmt.Errorf("%w: %w", ErrLock, uerr)
			}
		}
	}()

	return fn()
}

// sharedKey returns the container key, creating it on first use. A key
// file of the wrong length is reported, never replaced. It takes the
// container lock itself, so callers fetch the key before withLock.
func (s *Store) sharedKey(ctx context.Context) ([]byte, error) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	key, err := s.readKey()
	if errors.Is(err, os.ErrNotExist) {
		err = s.withLock(ctx, func() error {
			key, err = s.readKey()
			if errors.Is(err, os.ErrNotExist) {
				key, err = s.createKey(ctx)
			}
			return err
		})
	}
	if err != nil {
		return nil, err
	}
	s.key = key
	return key, nil
}

func (s *Store) readKey() ([]byte, error) {
	b, err := os.ReadFile(s.path(KeyFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrContainerUnavailable, err)
	}
	if len(b) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidSharedKey, len(b))
	}
	return b, nil
}

func (s *Store) createKey(ctx context.Context) ([]byte, error) {
	key := common.GenerateRandByteArray(cryptox.KeySize)
	path := s.path(KeyFile)
	if err := filex.WriteFileAtomic(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainerUnavailable, err)
	}
	if err := s.excludeFromBackup(path); err != nil {
		s.log.Warn(ctx, "failed to exclude shared key from backup", "error", err)
	}
	s.log.Info(ctx, "shared key created")
	return key, nil
}

// readSealed opens name into v. A missing file leaves v untouched.
func (s *Store) readSealed(name string, key []byte, v any) error {
	b, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrContainerUnavailable, err)
	}
	if err := cryptox.OpenJSON(b, key, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptPayload, name, err)
	}
	return nil
}

func (s *Store) writeSealed(name string, key []byte, v any) error {
	sealed, err := cryptox.SealJSON(v, key)
	if err != nil {
		return fmt.Errorf("%w: seal %s: %w", common.ErrCrypto, name, err)
	}
	if err := filex.WriteFileAtomic(s.path(name), sealed, 0o600); err != nil {
		return fmt.Errorf("%w: %w", ErrContainerUnavailable, err)
	}
	return nil
}
