package pixo

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// GuestPrefix namespaces anonymous uploads.
	GuestPrefix = "guest/"
	// UserPrefix namespaces owned uploads.
	UserPrefix = "user/"
)

// ValidateUpload checks an inbound file against the upload rules:
//   - a filename is present
//   - the content type starts with "image/"
//   - the size does not exceed maxSize
func ValidateUpload(u Upload, maxSize int64) error {
	if u.Content == nil {
		return fmt.Errorf("validate upload: %w: no file", ErrInvalidInput)
	}

	if u.Filename == "" {
		return fmt.Errorf("validate upload: %w: empty filename", ErrInvalidInput)
	}

	if !strings.HasPrefix(u.ContentType, "image/") {
		return fmt.Errorf("validate upload %s: %w: %q", u.Filename, ErrUnsupportedMedia, u.ContentType)
	}

	if u.Size > maxSize {
		return fmt.Errorf("validate upload %s: %w: %d > %d bytes", u.Filename, ErrTooLarge, u.Size, maxSize)
	}

	return nil
}

// FileExt returns the lower-cased extension of filename, including the dot.
func FileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// GuestKey builds the object key of a guest upload.
func GuestKey(id, ext string) string {
	return GuestPrefix + id + ext
}

// UserKey builds the object key of an owned upload.
func UserKey(userID, imageID, ext string) string {
	return UserPrefix + userID + "/" + imageID + ext
}

// TitleOr returns the trimmed title, or fallback when the title is blank.
func TitleOr(title, fallback string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return fallback
}
