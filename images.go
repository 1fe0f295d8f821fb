package pixo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStore defines the interface for binary blob storage.
// Implementations can use a local directory, MinIO, AWS S3 or any other
// S3-compatible service.
type ObjectStore interface {
	// Put stores content under key, overwriting any existing object.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: The object key (e.g. "user/<user_id>/<image_id>.png")
	//   - content: Reader providing exactly size bytes
	//   - size: Payload size in bytes, or -1 when unknown
	//   - contentType: MIME type recorded with the object
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error

	// Delete removes the object stored under key.
	// A missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public retrieval URL of key. It is deterministic and
	// carries no signature or expiry.
	URL(key string) string
}

// ImageRegistry manages owned image records and their objects.
type ImageRegistry struct {
	albums         *Collection[[]Album]
	images         *Collection[[]Image]
	objects        ObjectStore
	maxUploadSize  int64
	cleanupTimeout time.Duration
	clock          func() time.Time
}

// UploadImage stores a new object for userID and appends its record with no album.
//
// The object is written first. If the record cannot be persisted afterwards,
// the object is deleted again using a background context with the cleanup
// timeout, so a cancelled request does not leave an orphan behind.
//
// Returns:
//   - ErrInvalidInput when userID is empty or the file is missing
//   - ErrUnsupportedMedia when the content type is not image/*
//   - ErrTooLarge when the file exceeds the upload limit
func (r *ImageRegistry) UploadImage(ctx context.Context, userID string, file Upload, title string) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, fmt.Errorf("upload image: %w", err)
	}

	if userID == "" {
		return Image{}, fmt.Errorf("upload image: %w: user id is required", ErrInvalidInput)
	}

	if err := ValidateUpload(file, r.maxUploadSize); err != nil {
		return Image{}, fmt.Errorf("upload image: %w", err)
	}

	imageID := uuid.NewString()
	key := UserKey(userID, imageID, FileExt(file.Filename))

	if err := r.objects.Put(ctx, key, file.Content, file.Size, file.ContentType); err != nil {
		return Image{}, fmt.Errorf("upload image %s: put object: %w", key, err)
	}

	record := Image{
		ID:        imageID,
		UserID:    userID,
		Title:     TitleOr(title, file.Filename),
		AlbumID:   nil,
		Key:       key,
		URL:       r.objects.URL(key),
		CreatedAt: Timestamp(r.clock()),
	}

	err := r.images.Update(ctx, func(images []Image) ([]Image, error) {
		return append(images, record), nil
	})
	if err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), r.cleanupTimeout)
		defer cancel()

		if delErr := r.objects.Delete(cleanupCtx, key); delErr != nil {
			return Image{}, fmt.Errorf("upload image %s: save failed (%w) and cleanup failed: %w", key, err, delErr)
		}
		return Image{}, fmt.Errorf("upload image %s: save failed: %w", key, err)
	}

	return record, nil
}

// ListImages returns the images of userID, newest first.
func (r *ImageRegistry) ListImages(ctx context.Context, userID string) ([]Image, error) {
	images, err := r.images.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	owned := make([]Image, 0)
	for _, img := range images {
		if img.UserID == userID {
			owned = append(owned, img)
		}
	}

	sortNewestFirst(owned, func(img Image) string { return img.CreatedAt })
	return owned, nil
}

// GetImage returns the image with id imageID.
func (r *ImageRegistry) GetImage(ctx context.Context, imageID string) (Image, error) {
	images, err := r.images.Load(ctx)
	if err != nil {
		return Image{}, fmt.Errorf("get image: %w", err)
	}

	i, ok := findImage(images, imageID)
	if !ok {
		return Image{}, fmt.Errorf("get image %s: %w", imageID, ErrNotFound)
	}

	return images[i], nil
}

// RenameImage sets a new title on an image owned by userID.
//
// Returns:
//   - ErrInvalidInput when the trimmed title is empty
//   - ErrNotFound when imageID is unknown
//   - ErrForbidden when userID does not own the image
func (r *ImageRegistry) RenameImage(ctx context.Context, imageID, userID, title string) (Image, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Image{}, fmt.Errorf("rename image: %w: title is required", ErrInvalidInput)
	}

	var renamed Image
	err := r.images.Update(ctx, func(images []Image) ([]Image, error) {
		i, err := ownedImage(images, imageID, userID)
		if err != nil {
			return nil, fmt.Errorf("rename image: %w", err)
		}

		images[i].Title = title
		renamed = images[i]
		return images, nil
	})
	if err != nil {
		return Image{}, err
	}

	return renamed, nil
}

// DeleteImage removes an image owned by userID, then deletes its object.
// A failed object delete is logged and does not fail the call.
func (r *ImageRegistry) DeleteImage(ctx context.Context, imageID, userID string) error {
	var removed Image
	err := r.images.Update(ctx, func(images []Image) ([]Image, error) {
		i, err := ownedImage(images, imageID, userID)
		if err != nil {
			return nil, fmt.Errorf("delete image: %w", err)
		}

		removed = images[i]
		return slices.Delete(images, i, i+1), nil
	})
	if err != nil {
		return err
	}

	deleteObjectBestEffort(ctx, r.objects, removed.Key)
	return nil
}

// SetImageAlbum attaches an image owned by userID to albumID, or detaches it
// when albumID is empty. Setting the current album again is a no-op success.
//
// Returns:
//   - ErrInvalidInput when userID is empty
//   - ErrNotFound when imageID is unknown
//   - ErrForbidden when userID does not own the image
//   - ErrAlbumNotFound when albumID is unknown or owned by another user
func (r *ImageRegistry) SetImageAlbum(ctx context.Context, imageID, userID, albumID string) (Image, error) {
	if userID == "" {
		return Image{}, fmt.Errorf("set album: %w: user id is required", ErrInvalidInput)
	}

	var updated Image
	err := r.albums.View(ctx, func(albums []Album) error {
		return r.images.Update(ctx, func(images []Image) ([]Image, error) {
			i, err := ownedImage(images, imageID, userID)
			if err != nil {
				return nil, fmt.Errorf("set album: %w", err)
			}

			if albumID == "" {
				images[i].AlbumID = nil
				updated = images[i]
				return images, nil
			}

			// An album of another user is reported exactly like a missing one.
			j, ok := findAlbum(albums, albumID)
			if !ok || albums[j].UserID != userID {
				return nil, fmt.Errorf("set album %s: album %s: %w", imageID, albumID, ErrAlbumNotFound)
			}

			id := albumID
			images[i].AlbumID = &id
			updated = images[i]
			return images, nil
		})
	})
	if err != nil {
		return Image{}, err
	}

	return updated, nil
}

func findImage(images []Image, id string) (int, bool) {
	for i := range images {
		if images[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func ownedImage(images []Image, imageID, userID string) (int, error) {
	i, ok := findImage(images, imageID)
	if !ok {
		return -1, fmt.Errorf("image %s: %w", imageID, ErrNotFound)
	}
	if images[i].UserID != userID {
		return -1, fmt.Errorf("image %s: %w", imageID, ErrForbidden)
	}
	return i, nil
}

// deleteObjectBestEffort removes key and only logs a failure.
func deleteObjectBestEffort(ctx context.Context, objects ObjectStore, key string) {
	if key == "" {
		return
	}
	if err := objects.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete object", "key", key, "err", err)
	}
}
