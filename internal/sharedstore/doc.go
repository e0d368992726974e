// Package sharedstore is the encrypted hand-off area shared by the main
// process and the share extension.
//
// The container directory holds four files:
//
//	contacts.snapshot      replaceable contact list, main process writes
//	pending_shares.queue   append-only share queue, extension writes
//	shared.key             XChaCha20-Poly1305 key, created once
//	shared.lock            advisory lock file
//
// Every queue operation runs under an exclusive lock on shared.lock, so
// the two processes can touch the queue at the same time without losing
// updates. The snapshot has a single writer and is replaced atomically
// without locking.
package sharedstore
