// Package services implements the object lifecycle: store, retrieve,
// public metadata and sweep. It orchestrates the metadata repository, the
// blob store and the crypto engine, and owns the expiry invariant.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Barnamoyy/fileshare/internal/common"
	"github.com/Barnamoyy/fileshare/internal/cryptox"
	"github.com/Barnamoyy/fileshare/internal/logging"
	"github.com/Barnamoyy/fileshare/internal/server/blob"
	"github.com/Barnamoyy/fileshare/internal/server/metrics"
	"github.com/Barnamoyy/fileshare/internal/server/models"
	"github.com/Barnamoyy/fileshare/internal/server/repositories/objects"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Expiry bounds in hours. Values outside the bounds are clamped; zero or
// negative values fall back to the default.
const (
	DefaultExpiryHours = 24
	MinExpiryHours     = 1
	MaxExpiryHours     = 168
)

// StoreResult is returned to the caller after a successful store.
type StoreResult struct {
	ID           string
	ShareableURL string
	ExpiresAt    time.Time
}

// RetrieveResult carries the decrypted object and the fields needed for
// correct re-delivery.
type RetrieveResult struct {
	Data        []byte
	FileName    string
	ContentType string
}

// PublicMetadata is the minimal-disclosure view for unauthenticated lookups.
// It never carries key material, nonces or counters.
type PublicMetadata struct {
	FileName  string
	OwnerName string
}

// ObjectService is the lifecycle manager. Collaborators are injected at
// construction and live for the whole process.
type ObjectService struct {
	repo    objects.Repository
	blobs   blob.Store
	keys    *cryptox.KeyWrapper
	logger  logging.Logger
	metrics *metrics.StoreMetrics

	publicBaseURL  string
	maxUploadBytes int64

	// now is a seam for tests that need to move the clock.
	now func() time.Time
}

func NewObjectService(repo objects.Repository, blobs blob.Store, keys *cryptox.KeyWrapper,
	logger logging.Logger, m *metrics.StoreMetrics, publicBaseURL string, maxUploadBytes int64) *ObjectService {
	return &ObjectService{
		repo:           repo,
		blobs:          blobs,
		keys:           keys,
		logger:         logger.With("module", "object_service"),
		metrics:        m,
		publicBaseURL:  publicBaseURL,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// normalizeExpiryHours applies the forgiving expiry policy: zero or negative
// means the caller sent nothing usable, so the default applies; everything
// else is clamped into [MinExpiryHours, MaxExpiryHours].
func normalizeExpiryHours(hours int) int {
	if hours <= 0 {
		return DefaultExpiryHours
	}
	if hours < MinExpiryHours {
		return MinExpiryHours
	}
	if hours > MaxExpiryHours {
		return MaxExpiryHours
	}
	return hours
}

// Store encrypts plaintext and persists it under a fresh identifier.
//
// The ciphertext is written to the blob store before the metadata record is
// created, so a failure can never leave a metadata record without a blob.
// If record creation fails after a successful blob write, the blob is
// deleted best-effort.
func (s *ObjectService) Store(ctx context.Context, plaintext []byte, fileName, contentType, owner string, expiryHours int) (*StoreResult, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("%w: no file uploaded", common.ErrInvalidInput)
	}
	if fileName == "" {
		return nil, fmt.Errorf("%w: missing file name", common.ErrInvalidInput)
	}
	if s.maxUploadBytes > 0 && int64(len(plaintext)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", common.ErrPayloadTooLarge, len(plaintext), s.maxUploadBytes)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	hours := normalizeExpiryHours(expiryHours)
	now := s.now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	id := uuid.NewString()

	key, err := cryptox.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("key generation error: %w", err)
	}
	defer common.WipeByteArray(key)

	ciphertext, nonce, err := cryptox.Encrypt(plaintext, key)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	wrappedKey, err := s.keys.WrapKey(key)
	if err != nil {
		return nil, fmt.Errorf("key wrap error: %w", err)
	}

	// The blob store only ever sees ciphertext; the original content type
	// stays in metadata for re-delivery.
	if err := s.blobs.Put(ctx, id, ciphertext, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("%w: blob write failed: %s", common.ErrStorageUnavailable, err)
	}

	record := &models.Object{
		ID:           id,
		FileName:     fileName,
		ContentType:  contentType,
		OwnerName:    owner,
		EncryptedKey: wrappedKey,
		Nonce:        nonce,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		// Roll the blob back so no orphaned ciphertext outlives the failure.
		if delErr := s.blobs.DeleteIfExists(ctx, id); delErr != nil {
			s.logger.Warn(ctx, "orphaned blob cleanup failed", "id", id, "error", delErr.Error())
		}
		if errors.Is(err, common.ErrDuplicateID) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: metadata write failed: %s", common.ErrStorageUnavailable, err)
	}

	s.metrics.UploadsTotal.Inc()
	s.metrics.BytesStored.Add(float64(len(plaintext)))
	s.logger.Info(ctx, "object stored", "id", id, "size", len(plaintext), "expires_at", expiresAt)

	return &StoreResult{
		ID:           id,
		ShareableURL: s.publicBaseURL + "/download/" + id,
		ExpiresAt:    expiresAt,
	}, nil
}

// Retrieve loads, decrypts and returns an object. Expired objects are
// purged on access: the blob is deleted, the record tombstoned and
// common.ErrGone returned. That check is part of the operation, not
// optional.
func (s *ObjectService) Retrieve(ctx context.Context, id string) (*RetrieveResult, error) {
	obj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: metadata read failed: %s", common.ErrStorageUnavailable, err)
	}

	if obj.IsExpired || s.now().After(obj.ExpiresAt) {
		s.expireOnAccess(ctx, id)
		s.metrics.DownloadsTotal.WithLabelValues("gone").Inc()
		return nil, common.ErrGone
	}

	ciphertext, err := s.blobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, blob.ErrBlobNotFound) {
			// A missing blob under a live record means a previous deletion
			// won the race or a crash interrupted cleanup. Normalize to the
			// expired state instead of failing the read.
			s.logger.Warn(ctx, "blob absent for live record, tombstoning", "id", id)
			s.markExpiredAdvisory(ctx, id)
			s.metrics.DownloadsTotal.WithLabelValues("gone").Inc()
			return nil, common.ErrGone
		}
		return nil, fmt.Errorf("%w: blob read failed: %s", common.ErrStorageUnavailable, err)
	}

	key, err := s.keys.UnwrapKey(obj.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: key unwrap failed", common.ErrCorruptedObject)
	}
	defer common.WipeByteArray(key)

	plaintext, err := cryptox.Decrypt(ciphertext, obj.Nonce, key)
	if err != nil {
		s.metrics.DownloadsTotal.WithLabelValues("corrupted").Inc()
		return nil, fmt.Errorf("%w: decryption failed", common.ErrCorruptedObject)
	}

	// Counter bump is best-effort: a failure here must not abort a
	// successful download.
	if err := s.repo.IncrementDownloadCount(ctx, id); err != nil {
		s.logger.Warn(ctx, "download counter update failed", "id", id, "error", err.Error())
	}

	s.metrics.DownloadsTotal.WithLabelValues("ok").Inc()
	s.metrics.BytesServed.Add(float64(len(plaintext)))

	return &RetrieveResult{
		Data:        plaintext,
		FileName:    obj.FileName,
		ContentType: obj.ContentType,
	}, nil
}

// GetPublicMetadata returns the non-sensitive fields for an identifier.
func (s *ObjectService) GetPublicMetadata(ctx context.Context, id string) (*PublicMetadata, error) {
	obj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: metadata read failed: %s", common.ErrStorageUnavailable, err)
	}

	return &PublicMetadata{
		FileName:  obj.FileName,
		OwnerName: obj.OwnerName,
	}, nil
}

// Sweep purges every object whose expiry instant has passed. Per-object
// failures are collected and logged; the batch always runs to completion.
// Returns how many objects were fully reclaimed and, when any object
// failed, an error wrapping common.ErrPartialCleanup.
func (s *ObjectService) Sweep(ctx context.Context) (int, error) {
	expired, err := s.repo.QueryExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%w: expired query failed: %s", common.ErrStorageUnavailable, err)
	}

	s.metrics.SweepRunsTotal.Inc()

	var merr *multierror.Error
	deleted := 0

	for _, obj := range expired {
		if err := s.blobs.DeleteIfExists(ctx, obj.ID); err != nil {
			s.logger.Error(ctx, "sweep blob deletion failed", "id", obj.ID, "error", err.Error())
			s.metrics.SweepErrorsTotal.Inc()
			merr = multierror.Append(merr, fmt.Errorf("delete %s: %w", obj.ID, err))
			continue
		}
		if err := s.repo.MarkExpired(ctx, obj.ID); err != nil {
			// The blob is already gone, so the object is effectively dead;
			// the next sweep will retry the tombstone.
			s.logger.Error(ctx, "sweep tombstone failed", "id", obj.ID, "error", err.Error())
			s.metrics.SweepErrorsTotal.Inc()
			merr = multierror.Append(merr, fmt.Errorf("mark expired %s: %w", obj.ID, err))
			continue
		}
		deleted++
	}

	s.metrics.SweptObjectsTotal.Add(float64(deleted))
	s.logger.Info(ctx, "sweep finished", "expired", len(expired), "deleted", deleted)

	if err := merr.ErrorOrNil(); err != nil {
		return deleted, fmt.Errorf("%w: %s", common.ErrPartialCleanup, err)
	}
	return deleted, nil
}

// expireOnAccess deletes the blob and tombstones the record. Blob deletion
// is the authoritative step: once it has run, the caller sees Gone even if
// the advisory flag write fails.
func (s *ObjectService) expireOnAccess(ctx context.Context, id string) {
	s.metrics.ExpireOnAccessTotal.Inc()

	if err := s.blobs.DeleteIfExists(ctx, id); err != nil {
		s.logger.Error(ctx, "expire-on-access blob deletion failed", "id", id, "error", err.Error())
	}
	s.markExpiredAdvisory(ctx, id)
}

func (s *ObjectService) markExpiredAdvisory(ctx context.Context, id string) {
	if err := s.repo.MarkExpired(ctx, id); err != nil {
		s.logger.Warn(ctx, "tombstone write failed", "id", id, "error", err.Error())
	}
}
