// Package sessions persists group sessions and their satellite records:
// members, member activity intervals and reactions.
//
// Every row is keyed by a storage id built with cryptox.StorageID, so the
// same upstream session id stored by two local identities produces two
// independent rows. Upserts are plain writes of the values computed by the
// service layer, which owns the merge rules (watermarks, name promotion).
package sessions
