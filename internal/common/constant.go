// Package common contains shared constants and sentinel errors used across
// linkdrop components.
package common

// AppName is used as a prefix for key-derivation labels and keystore
// account names.
const AppName = "linkdrop"

// PubkeyHexLen is the length of a hex-encoded x-only public key.
const PubkeyHexLen = 64
