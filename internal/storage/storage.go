// Package storage abstracts the blob store holding team logos. The core only
// needs "store bytes, get back a retrievable reference"; failures here are
// never allowed to sink a team operation.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// BlobStore stores raw bytes under a path and returns a public reference.
type BlobStore interface {
	// Save writes data under the given relative path and returns the public
	// URL reference and the storage path for later deletion.
	Save(path string, data []byte) (url string, storagePath string, err error)
	// Delete removes a previously stored blob. Missing blobs are not an error.
	Delete(storagePath string) error
}

// DiskStore is the local-filesystem blob store, serving files under the
// /public static route.
type DiskStore struct {
	root      string
	publicURL string
}

// NewDiskStore creates a DiskStore rooted at dir, served under publicURL.
func NewDiskStore(dir, publicURL string) *DiskStore {
	return &DiskStore{root: dir, publicURL: publicURL}
}

func (s *DiskStore) Save(path string, data []byte) (string, string, error) {
	full := filepath.Join(s.root, filepath.Clean("/"+path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", "", fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write blob: %w", err)
	}
	return s.publicURL + "/" + path, full, nil
}

func (s *DiskStore) Delete(storagePath string) error {
	if storagePath == "" {
		return nil
	}
	if err := os.Remove(storagePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
