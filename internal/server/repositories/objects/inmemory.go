package objects

import (
	"context"
	"sync"
	"time"

	"github.com/Barnamoyy/fileshare/internal/common"
	"github.com/Barnamoyy/fileshare/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests and local
// development. The mutex gives the same per-record linearizability the
// Postgres implementation gets from single-row statements.
type InMemoryRepository struct {
	mu      sync.Mutex
	records map[string]*models.Object
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]*models.Object)}
}

func (r *InMemoryRepository) Create(ctx context.Context, obj *models.Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[obj.ID]; ok {
		return common.ErrDuplicateID
	}
	cp := *obj
	r.records[obj.ID] = &cp
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*models.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, ok := r.records[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *obj
	return &cp, nil
}

func (r *InMemoryRepository) MarkExpired(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, ok := r.records[id]
	if !ok {
		return common.ErrNotFound
	}
	obj.IsExpired = true
	return nil
}

func (r *InMemoryRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, ok := r.records[id]
	if !ok {
		return common.ErrNotFound
	}
	obj.DownloadCount++
	return nil
}

func (r *InMemoryRepository) QueryExpired(ctx context.Context, now time.Time) ([]*models.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Object
	for _, obj := range r.records {
		if !obj.IsExpired && obj.ExpiresAt.Before(now) {
			cp := *obj
			result = append(result, &cp)
		}
	}
	return result, nil
}
