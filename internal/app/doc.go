// Package app wires configuration, storage, crypto, the shared container,
// relay tracking and the relay transport into one explicit Context.
//
// Each process builds exactly one Context with New and releases it with
// Close. Nothing in this package is global: tests build as many Contexts as
// they need, each over its own directories.
package app
