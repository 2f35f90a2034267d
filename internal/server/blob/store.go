// Package blob provides content-opaque byte storage addressed by object
// identifier. Stores hold only ciphertext; nothing in this package knows
// about encryption.
package blob

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned by Get when no blob exists at the address.
var ErrBlobNotFound = errors.New("blob not found")

// Store is a byte-addressable blob backend.
type Store interface {
	// Put stores data at the given address. Overwrites are not expected but
	// must not corrupt existing data.
	Put(ctx context.Context, address string, data []byte, contentType string) error

	// Get returns the full blob at the address, or ErrBlobNotFound.
	Get(ctx context.Context, address string) ([]byte, error)

	// DeleteIfExists removes the blob. Idempotent: deleting an absent
	// address succeeds as a no-op.
	DeleteIfExists(ctx context.Context, address string) error
}
