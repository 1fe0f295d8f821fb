package pixo

import (
	"fmt"
	"io"
	"regexp"
	"time"
)

// TimeLayout is the fixed-width UTC layout used for created_at and uploaded_at.
// Fixed width keeps lexicographic order equal to chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// DefaultLang is reported for users that never set a language.
const DefaultLang = "ru"

// DefaultMaxUploadSize is the upload limit in bytes (5 MiB).
const DefaultMaxUploadSize int64 = 5 * 1024 * 1024

// User is a stored account. Username and Lang are nil when the record lacks
// the key, so documents keep their shape through a load and save.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Username  *string `json:"username,omitempty"`
	Lang      *string `json:"lang,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// Profile is the public view of a user, with defaults applied.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Lang      string `json:"lang"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Profile returns the public view of u.
func (u User) Profile() Profile {
	var username string
	if u.Username != nil {
		username = *u.Username
	}
	lang := DefaultLang
	if u.Lang != nil {
		lang = *u.Lang
	}
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Username:  username,
		Lang:      lang,
		CreatedAt: u.CreatedAt,
	}
}

type Album struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

type Image struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Title     string  `json:"title"`
	AlbumID   *string `json:"album_id"`
	Key       string  `json:"key"`
	URL       string  `json:"url"`
	CreatedAt string  `json:"created_at"`
}

// InAlbum reports whether the image is attached to albumID.
func (i Image) InAlbum(albumID string) bool {
	return i.AlbumID != nil && *i.AlbumID == albumID
}

// GuestSlot is the single live upload of a guest identity.
type GuestSlot struct {
	Key        string `json:"key"`
	Title      string `json:"title"`
	UploadedAt string `json:"uploaded_at"`
	URL        string `json:"url,omitempty"`
}

// GuestUpload is the result of a guest upload.
type GuestUpload struct {
	GuestID string `json:"guest_id"`
	Key     string `json:"key"`
	URL     string `json:"url"`
	Title   string `json:"title"`
}

// Upload describes an inbound file. Size is the declared payload size in bytes.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Collections holds the document names of the four collections.
// For the jsonfile backend they are file names relative to the storage directory.
type Collections struct {
	Users  string `mapstructure:"users"`
	Albums string `mapstructure:"albums"`
	Images string `mapstructure:"images"`
	Guests string `mapstructure:"guests"`
}

// DefaultCollections returns the document names used by the original deployment.
func DefaultCollections() Collections {
	return Collections{
		Users:  "users.json",
		Albums: "albums.json",
		Images: "images.json",
		Guests: "guest_uploads.json",
	}
}

var validDocumentNameRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// IsValidDocumentName checks that a document name is a single safe path segment (max 128 chars).
func IsValidDocumentName(name string) bool {
	return validDocumentNameRegex.MatchString(name) && len(name) <= 128
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all document names are set, valid and distinct.
func (c Collections) Validate() error {
	names := map[string]string{
		"users":  c.Users,
		"albums": c.Albums,
		"images": c.Images,
		"guests": c.Guests,
	}

	seen := make(map[string]string, len(names))
	for _, role := range []string{"users", "albums", "images", "guests"} {
		name := names[role]
		if name == "" {
			return fmt.Errorf("validate collections: %s document name cannot be empty", role)
		}
		if !IsValidDocumentName(name) {
			return fmt.Errorf("validate collections: invalid %s document name: %s", role, name)
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("validate collections: %s and %s share document %s", other, role, name)
		}
		seen[name] = role
	}

	return nil
}

// Timestamp formats t with TimeLayout in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
