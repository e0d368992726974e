// Package common defines shared constants and sentinel errors used across
// the store, relay and shared-container layers of linkdrop. Callers should
// use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors are local, never retried, and surfaced verbatim.
	ErrValidation = errors.New("validation error")
	ErrInvalidKey = fmt.Errorf("%w: invalid public key", ErrValidation)
	ErrInvalidURL = fmt.Errorf("%w: invalid url", ErrValidation)
	ErrEmptyField = fmt.Errorf("%w: required field is empty", ErrValidation)

	// Duplicate errors.
	ErrDuplicate        = errors.New("already exists")
	ErrDuplicateContact = fmt.Errorf("contact %w", ErrDuplicate)
	ErrDuplicateRelay   = fmt.Errorf("relay %w", ErrDuplicate)

	// ErrCrypto marks an encryption failure on a write path.
	ErrCrypto = errors.New("crypto error")

	// ErrIPC is the root of shared-container failures.
	ErrIPC = errors.New("shared container error")

	// ErrNotLoggedIn is returned by account-scoped operations without an
	// active identity.
	ErrNotLoggedIn = errors.New("no active identity")
)
