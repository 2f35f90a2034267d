// Package objects implements the metadata store for stored objects: the
// single source of truth for whether an object is alive.
package objects

import (
	"context"
	"time"

	"github.com/Barnamoyy/fileshare/internal/server/models"
)

// Repository persists object metadata records.
//
// Get and MarkExpired on the same id are linearizable per record, so two
// callers can never both observe "not yet expired" after one of them has
// flipped the tombstone.
type Repository interface {
	// Create inserts a new record. Returns common.ErrDuplicateID when the
	// identifier already exists.
	Create(ctx context.Context, obj *models.Object) error

	// Get returns the record for id, or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Object, error)

	// MarkExpired flips the tombstone flag. Idempotent: marking an already
	// expired record is a no-op, not an error.
	MarkExpired(ctx context.Context, id string) error

	// IncrementDownloadCount bumps the best-effort download counter.
	IncrementDownloadCount(ctx context.Context, id string) error

	// QueryExpired returns all live records whose expiry instant has passed.
	// Used by the sweeper.
	QueryExpired(ctx context.Context, now time.Time) ([]*models.Object, error)
}
