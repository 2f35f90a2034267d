// Package common defines shared sentinel errors and small helpers used
// across the fileshare components. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Lookup errors.
	ErrNotFound = errors.New("not found")

	// ErrGone marks an object that existed but has expired and been purged.
	// HTTP callers translate it to 410.
	ErrGone = errors.New("gone")

	// Validation errors.
	ErrInvalidInput    = errors.New("invalid input")
	ErrPayloadTooLarge = errors.New("payload too large")

	// Metadata store errors.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrCorruptedObject marks a ciphertext that failed authenticated
	// decryption: either the blob is damaged or the key material does not
	// match. Partial plaintext is never returned.
	ErrCorruptedObject = errors.New("corrupted object")

	// Backend errors.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrPartialCleanup reports a sweep that finished the batch but failed
	// on one or more individual objects.
	ErrPartialCleanup = errors.New("partial cleanup")

	// Auth errors (sweep trigger tokens).
	ErrInvalidToken = errors.New("invalid token")
)
