// Package jsonfile stores pixo collection documents as JSON files in a directory.
package jsonfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/filesystem"
)

// Store is a pixo.DocumentStore backed by one file per document.
type Store struct {
	root *os.Root
}

// New returns a Store writing into root.
func New(root *os.Root) *Store {
	return &Store{root: root}
}

// Open creates dir if needed and returns a Store rooted at it, together with
// a close function for the underlying root.
func Open(dir string) (*Store, func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("open jsonfile store: %w", err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open jsonfile store: %w", err)
	}

	return New(root), root.Close, nil
}

// Read returns the contents of the named document, or pixo.ErrNotFound.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !pixo.IsValidDocumentName(name) {
		return nil, fmt.Errorf("read %s: %w: invalid document name", name, pixo.ErrInvalidInput)
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pixo.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return data, nil
}

// Write atomically replaces the named document.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	if !pixo.IsValidDocumentName(name) {
		return fmt.Errorf("write %s: %w: invalid document name", name, pixo.ErrInvalidInput)
	}

	if _, err := filesystem.WriteAtomic(ctx, s.root, name, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// List returns the documents in the directory, sorted by name.
// Temp files and subdirectories are skipped.
func (s *Store) List(ctx context.Context) ([]pixo.DocumentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]pixo.DocumentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}

		docs = append(docs, pixo.DocumentInfo{
			Name:      entry.Name(),
			Size:      info.Size(),
			UpdatedAt: pixo.Timestamp(info.ModTime()),
		})
	}

	slices.SortFunc(docs, func(a, b pixo.DocumentInfo) int {
		return strings.Compare(a.Name, b.Name)
	})

	return docs, nil
}
