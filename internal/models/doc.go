// Package models defines the persisted record types of the on-device store
// and the decrypted views handed to callers.
//
// Persisted records never hold plaintext for sensitive fields: every field
// whose name ends in Enc is ciphertext produced by cryptox.AccountCipher
// for the row's OwnerPubkey, and every field ending in Digest is the
// matching lookup digest. Views are built per call and are not cached.
package models
