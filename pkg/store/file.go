package store

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	depmaperrors "github.com/matzehuels/depmap/pkg/errors"
)

// FileStore keeps the snapshot in one JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path. Parent directories are
// created on Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (f *FileStore) Path() string { return f.path }

// Save writes s atomically with mode 0600.
func (f *FileStore) Save(ctx context.Context, s *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, s); err != nil {
		return depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "encode snapshot")
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "chmod snapshot")
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		return depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "write snapshot")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "replace %s", f.path)
	}
	return nil
}

// Load reads the snapshot, returning ErrNoSnapshot if the file is absent.
func (f *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "open %s", f.path)
	}
	defer fh.Close()

	s, err := ReadSnapshot(fh)
	if err != nil {
		return nil, depmaperrors.Wrap(depmaperrors.ErrCodeStore, err, "read %s", f.path)
	}
	return s, nil
}

// Close does nothing for the file store.
func (f *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
