package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahrav/go-groundqa/internal/domain"
)

// FileStore keeps each artifact as a file in one directory. Writes go to a
// temporary file in the same directory followed by a rename, so a reader
// never observes a partial artifact.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory: %w", ErrArtifactKeyEmpty)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) (string, error) {
	if key == "" {
		return "", ErrArtifactKeyEmpty
	}
	if key != filepath.Base(key) || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrArtifactKeyInvalid, key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get reads the artifact file.
func (s *FileStore) Get(_ context.Context, ref domain.ArtifactRef) (string, error) {
	p, err := s.path(ref.Key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrArtifactNotFound, ref.Key)
	}
	if err != nil {
		return "", fmt.Errorf("read artifact %s: %w", ref.Key, err)
	}
	return string(data), nil
}

// Put writes content via temp file and rename.
func (s *FileStore) Put(
	_ context.Context, content string, kind domain.ArtifactKind, key string,
) (domain.ArtifactRef, error) {
	p, err := s.path(key)
	if err != nil {
		return domain.ArtifactRef{}, err
	}

	if err := WriteFileAtomic(p, []byte(content)); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("write artifact %s: %w", key, err)
	}

	return domain.ArtifactRef{Key: key, Size: int64(len(content)), Kind: kind}, nil
}

// Exists reports whether the artifact file is present.
func (s *FileStore) Exists(_ context.Context, ref domain.ArtifactRef) (bool, error) {
	p, err := s.path(ref.Key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat artifact %s: %w", ref.Key, err)
	}
}

// Delete removes the artifact file if present.
func (s *FileStore) Delete(_ context.Context, ref domain.ArtifactRef) error {
	p, err := s.path(ref.Key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete artifact %s: %w", ref.Key, err)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it and
// renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	committed = true
	return nil
}
