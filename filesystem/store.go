// Package filesystem provides a local directory object store for pixo.
// Objects are written atomically using temp files and served back by key
// under a configured public URL prefix.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pixoapp/pixo"
)

// Object describes a stored file.
type Object struct {
	Key         string `json:"key" yaml:"key"`
	Size        int64  `json:"size" yaml:"size"`
	ContentType string `json:"content_type" yaml:"content_type"`
}

// Store provides file system object storage.
type Store struct {
	root      *os.Root
	publicURL string
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
// publicURL is the prefix under which keys are served (e.g. "http://localhost:5000/files").
func NewFileStorage(root *os.Root, publicURL string) *Store {
	return &Store{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Get opens an object for reading. Returns pixo.ErrNotFound if the object does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pixo.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, pixo.ErrNotFound
	}

	return f, nil
}

// Put atomically stores content under key. The content type is derived from
// the key extension when the object is served, so contentType is not recorded.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, _ int64, _ string) error {
	if _, err := WriteAtomic(ctx, s.root, key, content); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes an object. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// URL returns publicURL joined with key.
func (s *Store) URL(key string) string {
	return s.publicURL + "/" + path.Clean(key)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// WriteAtomic writes content to name inside root using a temp file and rename.
// It creates intermediate directories as needed and returns the number of
// bytes written. Readers never observe a partially written file. The
// operation respects context cancellation.
func WriteAtomic(ctx context.Context, root *os.Root, name string, content io.Reader) (int64, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := root.Create(tmpFile)
	if createErr != nil {
		return 0, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	written, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return 0, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return 0, fmt.Errorf("could not sync written file: %w", err)
	}

	destDir := filepath.Dir(name)
	if destDir != "." {
		if err := root.MkdirAll(destDir, 0o755); err != nil {
			return 0, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := root.Rename(tmpFile, name); renameErr != nil {
		return 0, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return written, nil
}

// List recursively walks the root directory and returns every stored object
// with its size and detected content type. Temp files are skipped.
func (s *Store) List(ctx context.Context) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]Object, 0)

	err := s.walkDir(ctx, ".", &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir string, entries *[]Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if strings.HasPrefix(entry.Name(), ".t") {
			continue
		}

		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, Object{
			Key:         entryPath,
			Size:        info.Size(),
			ContentType: ContentType(entryPath),
		})
	}

	return nil
}

// ContentType detects the MIME type of key from its extension.
func ContentType(key string) string {
	contentType := mime.TypeByExtension(filepath.Ext(key))

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
