// Package models defines server-side data models persisted in the database.
package models

import "time"

// Object is the metadata record for a single stored object. Exactly one
// record exists per identifier; identifiers are never reused. Records are
// tombstoned via IsExpired, never hard-deleted.
type Object struct {
	// ID is the opaque unique identifier, also used as the blob address.
	ID string

	// FileName and ContentType are preserved for correct re-delivery.
	FileName    string
	ContentType string

	// OwnerName is free-text attribution with no identity binding.
	OwnerName string

	// EncryptedKey is the per-object AES key, sealed with the process
	// master key. Plaintext data keys are never persisted.
	EncryptedKey []byte
	// Nonce is the AES-GCM nonce for the object's ciphertext. It is carried
	// only here, never embedded in the blob.
	Nonce []byte

	CreatedAt time.Time
	// ExpiresAt is fixed at creation time and immutable afterwards.
	ExpiresAt time.Time

	// DownloadCount is a best-effort counter, not used for access limiting.
	DownloadCount int64

	// IsExpired is the tombstone flag. Once true, the ciphertext blob must
	// not exist (best effort).
	IsExpired bool
}
