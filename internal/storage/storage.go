// Package storage holds uploaded batch images behind a small object
// store interface.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// ObjectStore stores and retrieves binary objects by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ImageKey builds the canonical storage key for a batch image upload.
func ImageKey(batchID, filename string) string {
	return path.Join("batches", batchID, "images",
		fmt.Sprintf("%d-%s", time.Now().UTC().UnixMilli(), filepath.Base(filename)))
}

// LocalStore is an ObjectStore over a filesystem root. The afero
// abstraction lets tests run it fully in memory.
type LocalStore struct {
	fs   afero.Fs
	root string
}

// NewLocal returns a LocalStore over the OS filesystem rooted at root.
func NewLocal(root string) *LocalStore {
	return &LocalStore{fs: afero.NewOsFs(), root: root}
}

// NewLocalWithFs returns a LocalStore over an arbitrary filesystem.
func NewLocalWithFs(fs afero.Fs, root string) *LocalStore {
	return &LocalStore{fs: fs, root: root}
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte) error {
	p := s.path(key)
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return eris.Wrapf(err, "storage: mkdir for %s", key)
	}
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return eris.Wrapf(err, "storage: write %s", key)
	}
	return nil
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read %s", key)
	}
	return data, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	if err := s.fs.Remove(s.path(key)); err != nil {
		return eris.Wrapf(err, "storage: delete %s", key)
	}
	return nil
}
