package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	fsTempDirName = ".tmp"
	fsBlobDirName = "blobs"
	fsDataName    = "data"
	fsMetaName    = "meta.json"

	fsDirMode  = 0o755
	fsFileMode = 0o644
)

// fsMeta is the sidecar metadata stored beside each blob file.
type fsMeta struct {
	Address     string    `json:"address"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FSStore keeps blobs on the local filesystem. The address is hashed to a
// two-level sharded directory, which spreads files across directories and
// keeps untrusted addresses out of filesystem paths. Writes go through a
// temp file plus rename so a blob is either fully present or absent.
type FSStore struct {
	root string
}

// NewFSStore prepares the directory layout under root.
func NewFSStore(root string) (*FSStore, error) {
	root = filepath.Clean(root)

	if err := os.MkdirAll(filepath.Join(root, fsBlobDirName), fsDirMode); err != nil {
		return nil, fmt.Errorf("creating blobs directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, fsTempDirName), fsDirMode); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	return &FSStore{root: root}, nil
}

// blobDir returns the sharded directory for an address.
func (s *FSStore) blobDir(address string) string {
	sum := sha256.Sum256([]byte(address))
	h := hex.EncodeToString(sum[:])
	return filepath.Join(s.root, fsBlobDirName, h[:2], h[2:4], h)
}

func (s *FSStore) Put(ctx context.Context, address string, data []byte, contentType string) error {
	tmp, err := os.CreateTemp(filepath.Join(s.root, fsTempDirName), "put-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	dir := s.blobDir(address)
	if err := os.MkdirAll(dir, fsDirMode); err != nil {
		return fmt.Errorf("creating blob directory: %w", err)
	}

	meta := fsMeta{
		Address:     address,
		Size:        int64(len(data)),
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, fsMetaName), metaBytes, fsFileMode); err != nil {
		return fmt.Errorf("writing meta: %w", err)
	}

	// Rename is atomic within the same filesystem.
	if err := os.Rename(tmpPath, filepath.Join(dir, fsDataName)); err != nil {
		return fmt.Errorf("committing blob: %w", err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, address string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.blobDir(address), fsDataName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

func (s *FSStore) DeleteIfExists(ctx context.Context, address string) error {
	if err := os.RemoveAll(s.blobDir(address)); err != nil {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}
