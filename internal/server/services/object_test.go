package services

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Barnamoyy/fileshare/internal/common"
	"github.com/Barnamoyy/fileshare/internal/cryptox"
	"github.com/Barnamoyy/fileshare/internal/logging"
	"github.com/Barnamoyy/fileshare/internal/server/blob"
	"github.com/Barnamoyy/fileshare/internal/server/metrics"
	"github.com/Barnamoyy/fileshare/internal/server/models"
	"github.com/Barnamoyy/fileshare/internal/server/repositories/objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMasterKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	svc   *ObjectService
	repo  *objects.InMemoryRepository
	blobs blob.Store
	clock *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithBlobs(t, blob.NewMemoryStore())
}

func newTestEnvWithBlobs(t *testing.T, blobs blob.Store) *testEnv {
	t.Helper()

	masterKey, err := hex.DecodeString(testMasterKeyHex)
	require.NoError(t, err)

	keys, err := cryptox.NewKeyWrapper(masterKey)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	repo := objects.NewInMemoryRepository()
	svc := NewObjectService(repo, blobs, keys, logger, metrics.New(), "http://localhost:8080", 1<<20)
	svc.now = clock.Now

	return &testEnv{svc: svc, repo: repo, blobs: blobs, clock: clock}
}

func TestStoreRetrieveRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	payload := []byte("attack at dawn")
	res, err := env.svc.Store(ctx, payload, "plan.txt", "text/plain", "alice", 48)
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	assert.Equal(t, "http://localhost:8080/download/"+res.ID, res.ShareableURL)
	assert.Equal(t, env.clock.Now().Add(48*time.Hour), res.ExpiresAt)

	got, err := env.svc.Retrieve(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, got.Data)
	assert.Equal(t, "plan.txt", got.FileName)
	assert.Equal(t, "text/plain", got.ContentType)
}

func TestStoreNeverPersistsPlaintext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	payload := []byte("this sentence must not reach disk verbatim")
	res, err := env.svc.Store(ctx, payload, "secret.txt", "text/plain", "alice", 1)
	require.NoError(t, err)

	stored, err := env.blobs.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.NotEqual(t, payload, stored)
	assert.NotContains(t, string(stored), "verbatim")
}

func TestStoreValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Store(ctx, nil, "a.txt", "", "alice", 1)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = env.svc.Store(ctx, []byte("x"), "", "", "alice", 1)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	big := make([]byte, 1<<20+1)
	_, err = env.svc.Store(ctx, big, "big.bin", "", "alice", 1)
	assert.ErrorIs(t, err, common.ErrPayloadTooLarge)
}

func TestStoreExpiryNormalization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := env.clock.Now()

	tests := []struct {
		name      string
		hours     int
		wantHours int
	}{
		{"zero falls back to default", 0, DefaultExpiryHours},
		{"negative falls back to default", -5, DefaultExpiryHours},
		{"above maximum is clamped", 5000, MaxExpiryHours},
		{"in range passes through", 72, 72},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.svc.Store(ctx, []byte("x"), "a.txt", "", "alice", tt.hours)
			require.NoError(t, err)
			assert.Equal(t, now.Add(time.Duration(tt.wantHours)*time.Hour), res.ExpiresAt)
		})
	}
}

func TestRetrieveUnknownID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Retrieve(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRetrieveExpireOnAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Store(ctx, []byte("short-lived"), "a.txt", "", "alice", 1)
	require.NoError(t, err)

	env.clock.Advance(time.Hour + time.Second)

	_, err = env.svc.Retrieve(ctx, res.ID)
	assert.ErrorIs(t, err, common.ErrGone)

	// The blob must be physically gone and the record tombstoned.
	_, err = env.blobs.Get(ctx, res.ID)
	assert.ErrorIs(t, err, blob.ErrBlobNotFound)

	obj, err := env.repo.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, obj.IsExpired)

	// Expiry is irreversible: the object stays gone on later reads.
	_, err = env.svc.Retrieve(ctx, res.ID)
	assert.ErrorIs(t, err, common.ErrGone)
}

func TestRetrieveConcurrentExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Store(ctx, []byte("payload"), "a.txt", "", "alice", 1)
	require.NoError(t, err)
	env.clock.Advance(2 * time.Hour)

	const readers = 8
	errs := make(chan error, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Retrieve(ctx, res.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, common.ErrGone)
	}
}

func TestRetrieveMissingBlobNormalizedToGone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Store(ctx, []byte("payload"), "a.txt", "", "alice", 1)
	require.NoError(t, err)

	// Simulate a crash that removed the blob but left the record live.
	require.NoError(t, env.blobs.DeleteIfExists(ctx, res.ID))

	_, err = env.svc.Retrieve(ctx, res.ID)
	assert.ErrorIs(t, err, common.ErrGone)

	obj, err := env.repo.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, obj.IsExpired)
}

func TestRetrieveCorruptedCiphertext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Store(ctx, []byte("payload"), "a.txt", "", "alice", 1)
	require.NoError(t, err)

	require.NoError(t, env.blobs.Put(ctx, res.ID, []byte("garbage that is no ciphertext"), "application/octet-stream"))

	_, err = env.svc.Retrieve(ctx, res.ID)
	assert.ErrorIs(t, err, common.ErrCorruptedObject)
}

func TestRetrieveIncrementsDownloadCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Store(ctx, []byte("payload"), "a.txt", "", "alice", 1)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := env.svc.Retrieve(ctx, res.ID)
		require.NoError(t, err)
	}

	obj, err := env.repo.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), obj.DownloadCount)
}

func TestGetPublicMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Store(ctx, []byte("payload"), "report.pdf", "application/pdf", "bob", 1)
	require.NoError(t, err)

	md, err := env.svc.GetPublicMetadata(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, &PublicMetadata{FileName: "report.pdf", OwnerName: "bob"}, md)

	_, err = env.svc.GetPublicMetadata(ctx, "no-such-id")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Metadata stays readable after expiry; only the content is destroyed.
	env.clock.Advance(2 * time.Hour)
	_, err = env.svc.Retrieve(ctx, res.ID)
	assert.ErrorIs(t, err, common.ErrGone)

	md, err = env.svc.GetPublicMetadata(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", md.FileName)
}

func TestSweepReclaimsExpiredOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	short1, err := env.svc.Store(ctx, []byte("a"), "a.txt", "", "alice", 1)
	require.NoError(t, err)
	short2, err := env.svc.Store(ctx, []byte("b"), "b.txt", "", "alice", 1)
	require.NoError(t, err)
	long, err := env.svc.Store(ctx, []byte("c"), "c.txt", "", "alice", 100)
	require.NoError(t, err)

	env.clock.Advance(2 * time.Hour)

	deleted, err := env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	for _, id := range []string{short1.ID, short2.ID} {
		_, err := env.blobs.Get(ctx, id)
		assert.ErrorIs(t, err, blob.ErrBlobNotFound)
		obj, err := env.repo.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, obj.IsExpired)
	}

	got, err := env.svc.Retrieve(ctx, long.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), got.Data)

	// Tombstoned objects are not revisited.
	deleted, err = env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

// brokenDeleteStore fails DeleteIfExists for one address to exercise
// partial-cleanup reporting.
type brokenDeleteStore struct {
	blob.Store
	failAddress string
}

func (s *brokenDeleteStore) DeleteIfExists(ctx context.Context, address string) error {
	if address == s.failAddress {
		return errors.New("backend unavailable")
	}
	return s.Store.DeleteIfExists(ctx, address)
}

func TestSweepPartialFailure(t *testing.T) {
	broken := &brokenDeleteStore{Store: blob.NewMemoryStore()}
	env := newTestEnvWithBlobs(t, broken)
	ctx := context.Background()

	ok, err := env.svc.Store(ctx, []byte("a"), "a.txt", "", "alice", 1)
	require.NoError(t, err)
	bad, err := env.svc.Store(ctx, []byte("b"), "b.txt", "", "alice", 1)
	require.NoError(t, err)
	broken.failAddress = bad.ID

	env.clock.Advance(2 * time.Hour)

	deleted, err := env.svc.Sweep(ctx)
	assert.ErrorIs(t, err, common.ErrPartialCleanup)
	assert.Equal(t, 1, deleted)

	okObj, err := env.repo.Get(ctx, ok.ID)
	require.NoError(t, err)
	assert.True(t, okObj.IsExpired)

	// The failed object stays live in metadata so the next run retries it.
	badObj, err := env.repo.Get(ctx, bad.ID)
	require.NoError(t, err)
	assert.False(t, badObj.IsExpired)

	broken.failAddress = ""
	deleted, err = env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

// createFailRepo rejects every Create to exercise blob rollback.
type createFailRepo struct {
	*objects.InMemoryRepository
}

func (r *createFailRepo) Create(ctx context.Context, obj *models.Object) error {
	return errors.New("connection refused")
}

// recordingStore remembers the last address written.
type recordingStore struct {
	blob.Store
	lastPut string
}

func (s *recordingStore) Put(ctx context.Context, address string, data []byte, contentType string) error {
	s.lastPut = address
	return s.Store.Put(ctx, address, data, contentType)
}

func TestStoreRollsBackBlobOnMetadataFailure(t *testing.T) {
	recording := &recordingStore{Store: blob.NewMemoryStore()}
	env := newTestEnvWithBlobs(t, recording)
	env.svc.repo = &createFailRepo{InMemoryRepository: env.repo}
	ctx := context.Background()

	_, err := env.svc.Store(ctx, []byte("payload"), "a.txt", "", "alice", 1)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)

	require.NotEmpty(t, recording.lastPut)
	_, err = recording.Get(ctx, recording.lastPut)
	assert.ErrorIs(t, err, blob.ErrBlobNotFound)
}
