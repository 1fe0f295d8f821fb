package pixo_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/credential"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memDocuments is an in-memory pixo.DocumentStore.
type memDocuments struct {
	mu       sync.Mutex
	docs     map[string][]byte
	writeErr error
	writes   int
}

func newMemDocuments() *memDocuments {
	return &memDocuments{docs: make(map[string][]byte)}
}

func (m *memDocuments) Read(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.docs[name]
	if !ok {
		return nil, pixo.ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (m *memDocuments) Write(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	m.docs[name] = bytes.Clone(data)
	m.writes++
	return nil
}

func (m *memDocuments) set(name, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = []byte(data)
}

func (m *memDocuments) failWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

func (m *memDocuments) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// memObjects is an in-memory pixo.ObjectStore.
type memObjects struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (m *memObjects) Put(_ context.Context, key string, content io.Reader, _ int64, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, key)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memObjects) URL(key string) string {
	return "https://cdn.test/" + key
}

func (m *memObjects) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memObjects) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// SpyObjectStore records object store calls.
type SpyObjectStore struct {
	mock.Mock
}

func (s *SpyObjectStore) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	args := s.Called(ctx, key, content, size, contentType)
	return args.Error(0)
}

func (s *SpyObjectStore) Delete(ctx context.Context, key string) error {
	args := s.Called(ctx, key)
	return args.Error(0)
}

func (s *SpyObjectStore) URL(key string) string {
	return "https://cdn.test/" + key
}

// stepClock returns a clock advancing one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type fixture struct {
	svc     *pixo.Service
	docs    *memDocuments
	objects *memObjects
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	docs := newMemDocuments()
	objects := newMemObjects()
	svc := newService(t, docs, objects)

	return fixture{svc: svc, docs: docs, objects: objects}
}

func newService(t *testing.T, docs pixo.DocumentStore, objects pixo.ObjectStore) *pixo.Service {
	t.Helper()

	svc, err := pixo.NewService(pixo.ServiceConfig{
		Documents:      docs,
		Objects:        objects,
		Credentials:    credential.Plain{},
		Collections:    pixo.DefaultCollections(),
		CleanupTimeout: time.Second,
		Clock:          stepClock(),
	})
	require.NoError(t, err)
	return svc
}

func pngUpload(name, body string) pixo.Upload {
	return pixo.Upload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Content:     strings.NewReader(body),
	}
}

func mustRegister(t *testing.T, svc *pixo.Service, email string) pixo.User {
	t.Helper()

	u, err := svc.Register(context.Background(), email, "123")
	require.NoError(t, err)
	return u
}
