// Package photos stores submitted complaint photos as opaque blobs.
package photos

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store saves and loads photo blobs by reference.
type Store interface {
	Save(ctx context.Context, id string, data []byte) (ref string, err error)
	Load(ctx context.Context, ref string) ([]byte, error)
}

// DiskStore keeps photos as files under a base directory.
type DiskStore struct {
	dir string
}

var _ Store = (*DiskStore)(nil)

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(ctx context.Context, id string, data []byte) (string, error) {
	ref := id + ".jpg"
	path := filepath.Join(s.dir, ref)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write photo %s: %w", ref, err)
	}
	return ref, nil
}

func (s *DiskStore) Load(ctx context.Context, ref string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", ref, err)
	}
	return data, nil
}
