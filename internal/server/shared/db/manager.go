package db

import (
	"context"
	"database/sql"

	"github.com/Barnamoyy/fileshare/internal/server/repositories/objects"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Objects() objects.Repository
}
