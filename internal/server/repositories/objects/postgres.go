package objects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Barnamoyy/fileshare/internal/common"
	"github.com/Barnamoyy/fileshare/internal/dbx"
	"github.com/Barnamoyy/fileshare/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, obj *models.Object) error {
	query := `
		INSERT INTO objects (id, file_name, content_type, owner_name, encrypted_key, nonce,
			created_at, expires_at, download_count, is_expired)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		obj.ID, obj.FileName, obj.ContentType, obj.OwnerName, obj.EncryptedKey, obj.Nonce,
		obj.CreatedAt, obj.ExpiresAt, obj.DownloadCount, obj.IsExpired)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrDuplicateID
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Object, error) {
	query := `
		SELECT id, file_name, content_type, owner_name, encrypted_key, nonce,
			created_at, expires_at, download_count, is_expired
		FROM objects WHERE id = $1
	`
	obj := &models.Object{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&obj.ID, &obj.FileName, &obj.ContentType, &obj.OwnerName, &obj.EncryptedKey, &obj.Nonce,
		&obj.CreatedAt, &obj.ExpiresAt, &obj.DownloadCount, &obj.IsExpired)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return obj, nil
}

// MarkExpired sets the tombstone flag. The unconditional single-row UPDATE
// makes concurrent calls safe: the second one is a no-op.
func (r *PostgresRepository) MarkExpired(ctx context.Context, id string) error {
	query := `UPDATE objects SET is_expired = TRUE WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	query := `UPDATE objects SET download_count = download_count + 1 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) QueryExpired(ctx context.Context, now time.Time) ([]*models.Object, error) {
	query := `
		SELECT id, file_name, content_type, owner_name, encrypted_key, nonce,
			created_at, expires_at, download_count, is_expired
		FROM objects WHERE expires_at < $1 AND is_expired = FALSE
	`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to select expired objects: %w", err)
	}
	defer rows.Close()

	var result []*models.Object
	for rows.Next() {
		obj := &models.Object{}
		if err := rows.Scan(
			&obj.ID, &obj.FileName, &obj.ContentType, &obj.OwnerName, &obj.EncryptedKey, &obj.Nonce,
			&obj.CreatedAt, &obj.ExpiresAt, &obj.DownloadCount, &obj.IsExpired); err != nil {
			return nil, err
		}
		result = append(result, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
