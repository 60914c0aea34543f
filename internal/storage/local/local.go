// Package local stores objects as files under a root directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iliyamo/sellerhub/internal/storage"
)

var _ storage.Storage = (*Store)(nil)

// Store keeps objects on the local filesystem.
type Store struct {
	root string
}

// New returns a Store rooted at dir. The directory is created lazily.
func New(dir string) *Store { return &Store{root: dir} }

func (s *Store) path(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Save writes r to key, replacing any existing file. Data goes to a temp
// file first so readers never see a partial image.
func (s *Store) Save(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close upload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	return nil
}

// Open returns the file for key or storage.ErrNotFound.
func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, storage.Info, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, storage.Info{}, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.Info{}, storage.ErrNotFound
	}
	if err != nil {
		return nil, storage.Info{}, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, storage.Info{}, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, storage.Info{}, storage.ErrNotFound
	}
	return f, storage.Info{Size: st.Size(), ContentType: storage.ContentTypeFor(key)}, nil
}

// Delete removes the file for key. A missing file is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
