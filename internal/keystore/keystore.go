// Package keystore is the boundary to platform secret storage (a keychain on
// mobile, a private directory on desktop). It stores opaque secret bytes per
// account name and knows nothing about what they are used for.
package keystore

import (
	"context"
	"errors"
	"sync"
)

var ErrKeyNotFound = errors.New("key not found")

// KeyStore loads, stores and deletes raw secrets by account name.
type KeyStore interface {
	// Load returns ErrKeyNotFound when nothing is stored under account.
	Load(ctx context.Context, account string) ([]byte, error)
	Store(ctx context.Context, account string, secret []byte) error
	// Delete is idempotent.
	Delete(ctx context.Context, account string) error
}

// Memory is a process-local KeyStore, used by tests and ephemeral runs.
type Memory struct {
	mu      sync.Mutex
	secrets map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{secrets: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, account string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.secrets[account]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Store(_ context.Context, account string, secret []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[account] = append([]byte(nil), secret...)
	return nil
}

func (m *Memory) Delete(_ context.Context, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, account)
	return nil
}
