// Package settings persists device-level values that outlive a process,
// such as the identity that was active when the CLI last exited. Values are
// not account-scoped and are never encrypted.
package settings

import "context"

const KeyActiveOwner = "active_owner"

type Repository interface {
	// Get reports false when key was never set or was deleted.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}
