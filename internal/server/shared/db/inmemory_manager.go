package db

import (
	"context"
	"database/sql"

	"github.com/Barnamoyy/fileshare/internal/server/repositories/objects"
)

// InMemoryRepositoryManager backs the server with process-local storage.
// Useful for local development without Postgres.
type InMemoryRepositoryManager struct {
	objects objects.Repository
}

func (m InMemoryRepositoryManager) Conn() *sql.DB {
	return nil
}

func (m InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m InMemoryRepositoryManager) Objects() objects.Repository {
	return m.objects
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return InMemoryRepositoryManager{objects: objects.NewInMemoryRepository()}
}
