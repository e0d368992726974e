package models

import "time"

// PendingShare is written by the share extension, one per user action, and
// drained by the main process.
type PendingShare struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	ContactNPub string    `json:"contact_npub"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContactSnapshot is the read-only contact list the main process publishes
// for the extension's recipient picker.
type ContactSnapshot struct {
	NPub  string `json:"npub"`
	Alias string `json:"alias,omitempty"`
}
