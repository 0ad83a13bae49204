package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	mderrors "github.com/Blakeem/mdstore/internal/errors"
)

// Source reads and writes markdown files under a single root directory. It is
// the only component that touches the filesystem; everything above it works
// on in-memory records.
type Source struct {
	root string
}

// NewSource validates the root directory and returns a source jailed to it.
func NewSource(root string) (*Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving docs root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("docs root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs root %s is not a directory", abs)
	}
	return &Source{root: abs}, nil
}

// CleanPath normalizes a document path to its canonical slash-separated,
// root-relative form, rejecting traversal and non-markdown targets.
func (s *Source) CleanPath(path string) (string, error) {
	p := strings.TrimSpace(path)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", mderrors.NewInvalidAddressError(path, "empty document path")
	}
	p = filepath.ToSlash(filepath.Clean(p))
	if p == ".." || strings.HasPrefix(p, "../") || strings.Contains(p, "/../") {
		return "", mderrors.NewInvalidAddressError(path, "path escapes the docs root")
	}
	if !strings.HasSuffix(p, ".md") {
		return "", mderrors.NewInvalidAddressError(path, "document paths must end in .md")
	}
	return p, nil
}

func (s *Source) abs(path string) (string, error) {
	p, err := s.CleanPath(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(p)), nil
}

// Stat returns the file's modification time.
func (s *Source) Stat(path string) (time.Time, error) {
	abs, err := s.abs(path)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, mderrors.NewDocumentNotFoundError(path)
		}
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// Read returns the file's content and modification time.
func (s *Source) Read(path string) ([]byte, time.Time, error) {
	abs, err := s.abs(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, mderrors.NewDocumentNotFoundError(path)
		}
		return nil, time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read %s: %w", path, err)
	}
	return data, info.ModTime(), nil
}

// Write persists the document atomically: content goes to a temp file in the
// target directory, which is then renamed over the destination.
func (s *Source) Write(path string, data []byte) error {
	abs, err := s.abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".mdstore-*")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
