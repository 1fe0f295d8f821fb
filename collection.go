package pixo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DocumentStore defines the interface for whole-document persistence.
// Each collection is stored as a single named JSON document.
//
// All methods accept a context for cancellation and timeout control.
type DocumentStore interface {
	// Read returns the raw bytes of the named document.
	//
	// Returns:
	//   - []byte: The stored document
	//   - error: ErrNotFound if the document does not exist, or other storage errors
	Read(ctx context.Context, name string) ([]byte, error)

	// Write replaces the named document with data.
	//
	// Implementations should:
	//   - Replace the document atomically (readers never observe a partial write)
	//   - Create the document if it does not exist
	Write(ctx context.Context, name string, data []byte) error
}

// DocumentInfo describes a stored document.
type DocumentInfo struct {
	Name      string `json:"name" yaml:"name"`
	Size      int64  `json:"size" yaml:"size"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

// DocumentLister is implemented by document stores that can enumerate
// their documents.
type DocumentLister interface {
	List(ctx context.Context) ([]DocumentInfo, error)
}

// CollectionOptions controls how a collection treats its backing document.
type CollectionOptions struct {
	// RecoverCorrupt loads an unparsable document as empty instead of
	// returning ErrCorruptDocument. Recovery is logged as a warning.
	RecoverCorrupt bool
}

// Collection is a whole-document view over one DocumentStore entry.
// Load/mutate/save sequences run under a per-collection mutex through
// View and Update, so writers in the same process never lose updates.
// Writers in other processes still race (last writer wins).
type Collection[T any] struct {
	mu    sync.Mutex
	store DocumentStore
	name  string
	opts  CollectionOptions
	empty func() T
}

// NewCollection creates a collection stored in document name.
// empty returns the value used when the document is absent.
func NewCollection[T any](store DocumentStore, name string, empty func() T, opts CollectionOptions) *Collection[T] {
	return &Collection[T]{
		store: store,
		name:  name,
		opts:  opts,
		empty: empty,
	}
}

// NewListCollection creates a collection holding an ordered sequence of records.
func NewListCollection[E any](store DocumentStore, name string, opts CollectionOptions) *Collection[[]E] {
	return NewCollection(store, name, func() []E { return []E{} }, opts)
}

// NewMapCollection creates a collection holding records keyed by string.
func NewMapCollection[V any](store DocumentStore, name string, opts CollectionOptions) *Collection[map[string]V] {
	return NewCollection(store, name, func() map[string]V { return map[string]V{} }, opts)
}

// Name returns the document name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Load reads and decodes the whole collection.
// A missing document loads as empty.
func (c *Collection[T]) Load(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Save encodes and writes the whole collection.
func (c *Collection[T]) Save(ctx context.Context, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, v)
}

// View loads the collection and passes it to fn while holding the collection lock.
func (c *Collection[T]) View(ctx context.Context, fn func(T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.load(ctx)
	if err != nil {
		return err
	}
	return fn(v)
}

// Update loads the collection, applies fn and saves the result while holding
// the collection lock. Nothing is written when fn returns an error.
func (c *Collection[T]) Update(ctx context.Context, fn func(T) (T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.load(ctx)
	if err != nil {
		return err
	}

	v, err = fn(v)
	if err != nil {
		return err
	}

	return c.save(ctx, v)
}

func (c *Collection[T]) load(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		return c.empty(), fmt.Errorf("load %s: %w", c.name, err)
	}

	data, err := c.store.Read(ctx, c.name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.empty(), nil
		}
		return c.empty(), fmt.Errorf("load %s: %w", c.name, err)
	}

	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return c.empty(), nil
	}

	v := c.empty()
	if decodeErr := json.Unmarshal(trimmed, &v); decodeErr != nil {
		if !c.opts.RecoverCorrupt {
			return c.empty(), fmt.Errorf("load %s: %w: %w", c.name, ErrCorruptDocument, decodeErr)
		}
		slog.Warn("corrupt collection document, loading as empty", "collection", c.name, "err", decodeErr)
		return c.empty(), nil
	}

	return v, nil
}

func (c *Collection[T]) save(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save %s: %w", c.name, err)
	}

	data, err := EncodeDocument(v)
	if err != nil {
		return fmt.Errorf("save %s: %w", c.name, err)
	}

	if err := c.store.Write(ctx, c.name, data); err != nil {
		return fmt.Errorf("save %s: %w", c.name, err)
	}

	return nil
}

// EncodeDocument renders v as a human-readable document: two-space indent,
// UTF-8 text kept as is (no HTML or non-ASCII escaping).
func EncodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}
