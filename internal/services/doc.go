// Package services contains the application services of linkdrop: the
// encrypted entity store (contacts, sessions, messages, accounts), relay
// management, the send path gated on relay readiness, and the drain of
// shares queued by the extension process.
//
// Services are built once in app.New and receive every collaborator
// explicitly. Writes that touch more than one row run inside dbx.WithTx
// with repositories bound to the transaction.
package services
