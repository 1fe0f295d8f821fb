package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pixoapp/pixo"
)

// errorMapping translates a service error into a status and error code.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// defaultMappings is checked in order, so the specific not-found errors
// must precede pixo.ErrNotFound which they wrap.
var defaultMappings = []errorMapping{
	{pixo.ErrAlbumNotFound, http.StatusNotFound, "album_not_found", "Album not found"},
	{pixo.ErrUserNotFound, http.StatusNotFound, "user_not_found", "User not found"},
	{pixo.ErrNotFound, http.StatusNotFound, "not_found", "Not found"},
	{pixo.ErrForbidden, http.StatusForbidden, "forbidden", "Forbidden"},
	{pixo.ErrDuplicateEmail, http.StatusBadRequest, "email_taken", "Email already registered"},
	{pixo.ErrWrongCredential, http.StatusBadRequest, "wrong_password", "Wrong password"},
	{pixo.ErrUnsupportedMedia, http.StatusBadRequest, "only_images_allowed", "Only images are allowed"},
	{pixo.ErrTooLarge, http.StatusBadRequest, "file_too_large", "File too large"},
	{pixo.ErrInvalidInput, http.StatusBadRequest, "invalid_input", "Invalid input"},
}

// override replaces the code (and optionally the status) reported for target.
func override(target error, status int, code string) errorMapping {
	return errorMapping{target: target, status: status, code: code}
}

// HandleError writes appropriate error response based on error type.
// Overrides are checked before the default mappings.
func HandleError(w http.ResponseWriter, err error, overrides ...errorMapping) {
	for _, m := range overrides {
		if errors.Is(err, m.target) {
			slog.Debug("request rejected", "code", m.code, "error", err)
			WriteError(w, m.status, m.code, messageFor(m))
			return
		}
	}

	for _, m := range defaultMappings {
		if errors.Is(err, m.target) {
			slog.Debug("request rejected", "code", m.code, "error", err)
			WriteError(w, m.status, m.code, m.message)
			return
		}
	}

	slog.Error("request error", "error", err)
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

func messageFor(m errorMapping) string {
	if m.message != "" {
		return m.message
	}
	for _, d := range defaultMappings {
		if d.target == m.target {
			return d.message
		}
	}
	return http.StatusText(m.status)
}
