package pixo_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pixoapp/pixo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_Load(t *testing.T) {
	tests := []struct {
		name    string
		stored  *string
		recover bool
		want    []pixo.Album
		wantErr error
	}{
		{name: "missing document", stored: nil, want: []pixo.Album{}},
		{name: "null document", stored: ptr("null\n"), want: []pixo.Album{}},
		{name: "empty list", stored: ptr("[]"), want: []pixo.Album{}},
		{
			name:   "records",
			stored: ptr(`[{"id":"a1","user_id":"u1","title":"Trip","created_at":"t"}]`),
			want:   []pixo.Album{{ID: "a1", UserID: "u1", Title: "Trip", CreatedAt: "t"}},
		},
		{name: "corrupt document", stored: ptr("{not json"), wantErr: pixo.ErrCorruptDocument},
		{name: "corrupt document recovered", stored: ptr("{not json"), recover: true, want: []pixo.Album{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := newMemDocuments()
			if tt.stored != nil {
				docs.set("albums.json", *tt.stored)
			}

			c := pixo.NewListCollection[pixo.Album](docs, "albums.json", pixo.CollectionOptions{RecoverCorrupt: tt.recover})
			got, err := c.Load(context.Background())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollection_SaveEmptyWritesList(t *testing.T) {
	docs := newMemDocuments()
	c := pixo.NewListCollection[pixo.Image](docs, "images.json", pixo.CollectionOptions{})

	require.NoError(t, c.Save(context.Background(), []pixo.Image{}))

	data, err := docs.Read(context.Background(), "images.json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestCollection_MapRoundTrip(t *testing.T) {
	docs := newMemDocuments()
	c := pixo.NewMapCollection[pixo.GuestSlot](docs, "guest_uploads.json", pixo.CollectionOptions{})
	ctx := context.Background()

	empty, err := c.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	slots := map[string]pixo.GuestSlot{"g1": {Key: "guest/x.png", Title: "Привет", UploadedAt: "t"}}
	require.NoError(t, c.Save(ctx, slots))

	data, err := docs.Read(ctx, "guest_uploads.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Привет", "non-ASCII text is stored unescaped")

	loaded, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, slots, loaded)
}

func TestCollection_UserDocumentKeepsShape(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{
			name:   "empty profile fields",
			stored: `[{"id":"u1","email":"a@b.c","password":"p","username":"","lang":"","created_at":"t"}]`,
		},
		{
			name:   "profile fields never set",
			stored: `[{"id":"u1","email":"a@b.c","password":"p","created_at":"t"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			docs := newMemDocuments()
			docs.set("users.json", tt.stored)
			c := pixo.NewListCollection[pixo.User](docs, "users.json", pixo.CollectionOptions{})

			users, err := c.Load(ctx)
			require.NoError(t, err)
			require.NoError(t, c.Save(ctx, users))

			data, err := docs.Read(ctx, "users.json")
			require.NoError(t, err)
			assert.JSONEq(t, tt.stored, string(data))
		})
	}
}

func TestCollection_UpdateDoesNotSaveOnError(t *testing.T) {
	docs := newMemDocuments()
	c := pixo.NewListCollection[pixo.User](docs, "users.json", pixo.CollectionOptions{})
	fnErr := errors.New("rejected")

	err := c.Update(context.Background(), func(users []pixo.User) ([]pixo.User, error) {
		return append(users, pixo.User{ID: "u1"}), fnErr
	})

	assert.ErrorIs(t, err, fnErr)
	assert.Equal(t, 0, docs.writeCount())
}

func TestCollection_UpdateWriteError(t *testing.T) {
	docs := newMemDocuments()
	writeErr := errors.New("disk full")
	docs.failWrites(writeErr)
	c := pixo.NewListCollection[pixo.User](docs, "users.json", pixo.CollectionOptions{})

	err := c.Update(context.Background(), func(users []pixo.User) ([]pixo.User, error) {
		return append(users, pixo.User{ID: "u1"}), nil
	})

	assert.ErrorIs(t, err, writeErr)
}

func TestCollection_ContextCanceled(t *testing.T) {
	c := pixo.NewListCollection[pixo.User](newMemDocuments(), "users.json", pixo.CollectionOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollection_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	docs := newMemDocuments()
	c := pixo.NewListCollection[pixo.Album](docs, "albums.json", pixo.CollectionOptions{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.Update(ctx, func(albums []pixo.Album) ([]pixo.Album, error) {
				return append(albums, pixo.Album{ID: "a"}), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	albums, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, albums, 50)
}

func TestEncodeDocument(t *testing.T) {
	data, err := pixo.EncodeDocument(map[string]string{"title": "<b>&"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"title\": \"<b>&\"\n}\n", string(data))
}

func ptr(s string) *string { return &s }
