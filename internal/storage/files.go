// Package storage is a local-disk file store for uploaded blobs: seller
// logos and archival offer PDFs. References handed out are opaque file
// names inside the store's root directory.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("file not found")

type Store struct {
	dir string
}

// New creates (if needed) the root directory and returns a store on it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Store writes the blob under a fresh random name, keeping the original
// file extension for content-type sniffing, and returns the reference.
func (s *Store) Store(name string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	ref := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(s.dir, ref))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	return ref, nil
}

// Open returns the blob for a previously issued reference.
func (s *Store) Open(ref string) (io.ReadCloser, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Path resolves a reference to an absolute filesystem path, for callers
// that hand files to libraries wanting a path (e.g. PDF logo embedding).
func (s *Store) Path(ref string) (string, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", ErrNotFound
	} else if err != nil {
		return "", err
	}
	return filepath.Abs(path)
}

// resolve rejects references that would escape the store root.
func (s *Store) resolve(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, ref), nil
}
