package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

type credentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ownerRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type titleRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Title  string `json:"title" validate:"required"`
}

type setAlbumRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	AlbumID string `json:"album_id"`
}

type updateProfileRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Lang     string `json:"lang"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

var errInvalidJSON = errors.New("invalid json body")

// decodeJSON reads the request body into dst. An empty body leaves dst at its
// zero value, so missing fields are reported by validation rather than as a
// malformed request.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errors.Join(errInvalidJSON, err)
}

// bind decodes and validates a JSON body. On failure it writes the error
// response, using code for missing required fields, and returns false.
func bind(w http.ResponseWriter, r *http.Request, dst any, code, message string) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "Request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed JSON body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		WriteError(w, http.StatusBadRequest, code, message)
		return false
	}

	return true
}
