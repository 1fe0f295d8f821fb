package pixo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AlbumRegistry manages albums, each owned by exactly one user.
//
// Operations that touch images take the albums lock before the images lock.
type AlbumRegistry struct {
	albums *Collection[[]Album]
	images *Collection[[]Image]
	clock  func() time.Time
}

// CreateAlbum creates an album owned by userID with the trimmed title.
func (r *AlbumRegistry) CreateAlbum(ctx context.Context, userID, title string) (Album, error) {
	title = strings.TrimSpace(title)
	if userID == "" || title == "" {
		return Album{}, fmt.Errorf("create album: %w: user id and title are required", ErrInvalidInput)
	}

	album := Album{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: Timestamp(r.clock()),
	}

	err := r.albums.Update(ctx, func(albums []Album) ([]Album, error) {
		return append(albums, album), nil
	})
	if err != nil {
		return Album{}, fmt.Errorf("create album: %w", err)
	}

	return album, nil
}

// ListAlbums returns the albums of userID, newest first.
func (r *AlbumRegistry) ListAlbums(ctx context.Context, userID string) ([]Album, error) {
	albums, err := r.albums.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}

	owned := make([]Album, 0)
	for _, a := range albums {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}

	sortNewestFirst(owned, func(a Album) string { return a.CreatedAt })
	return owned, nil
}

// GetAlbum returns an album together with its images, newest first.
func (r *AlbumRegistry) GetAlbum(ctx context.Context, albumID string) (Album, []Image, error) {
	var album Album
	var contents []Image

	err := r.albums.View(ctx, func(albums []Album) error {
		i, ok := findAlbum(albums, albumID)
		if !ok {
			return fmt.Errorf("get album %s: %w", albumID, ErrAlbumNotFound)
		}
		album = albums[i]

		return r.images.View(ctx, func(images []Image) error {
			contents = make([]Image, 0)
			for _, img := range images {
				if img.InAlbum(albumID) {
					contents = append(contents, img)
				}
			}
			return nil
		})
	})
	if err != nil {
		return Album{}, nil, err
	}

	sortNewestFirst(contents, func(img Image) string { return img.CreatedAt })
	return album, contents, nil
}

// RenameAlbum sets a new title on an album owned by userID.
//
// Returns:
//   - ErrInvalidInput when the trimmed title is empty
//   - ErrAlbumNotFound when albumID is unknown
//   - ErrForbidden when userID does not own the album
func (r *AlbumRegistry) RenameAlbum(ctx context.Context, albumID, userID, title string) (Album, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Album{}, fmt.Errorf("rename album: %w: title is required", ErrInvalidInput)
	}

	var renamed Album
	err := r.albums.Update(ctx, func(albums []Album) ([]Album, error) {
		i, err := ownedAlbum(albums, albumID, userID)
		if err != nil {
			return nil, fmt.Errorf("rename album: %w", err)
		}

		albums[i].Title = title
		renamed = albums[i]
		return albums, nil
	})
	if err != nil {
		return Album{}, err
	}

	return renamed, nil
}

// DeleteAlbum removes an album owned by userID and detaches every image that
// referenced it. Images are never deleted.
//
// Ownership is checked before anything is written. The detach is persisted
// before the album record is removed, so a failed second write leaves an
// empty album rather than images pointing at a missing one.
func (r *AlbumRegistry) DeleteAlbum(ctx context.Context, albumID, userID string) error {
	return r.albums.Update(ctx, func(albums []Album) ([]Album, error) {
		i, err := ownedAlbum(albums, albumID, userID)
		if err != nil {
			return nil, fmt.Errorf("delete album: %w", err)
		}

		err = r.images.Update(ctx, func(images []Image) ([]Image, error) {
			for j := range images {
				if images[j].InAlbum(albumID) {
					images[j].AlbumID = nil
				}
			}
			return images, nil
		})
		if err != nil {
			return nil, fmt.Errorf("delete album %s: detach images: %w", albumID, err)
		}

		return slices.Delete(albums, i, i+1), nil
	})
}

func findAlbum(albums []Album, id string) (int, bool) {
	for i := range albums {
		if albums[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func ownedAlbum(albums []Album, albumID, userID string) (int, error) {
	i, ok := findAlbum(albums, albumID)
	if !ok {
		return -1, fmt.Errorf("album %s: %w", albumID, ErrAlbumNotFound)
	}
	if albums[i].UserID != userID {
		return -1, fmt.Errorf("album %s: %w", albumID, ErrForbidden)
	}
	return i, nil
}

// sortNewestFirst orders records by created_at descending. Timestamps are
// compared as strings; ties keep their stored order.
func sortNewestFirst[T any](records []T, createdAt func(T) string) {
	slices.SortStableFunc(records, func(a, b T) int {
		return strings.Compare(createdAt(b), createdAt(a))
	})
}
