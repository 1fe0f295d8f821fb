package pixo

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrUserNotFound is returned when a user id or email is unknown
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrAlbumNotFound is returned when an album is unknown or not visible to the caller
	ErrAlbumNotFound = fmt.Errorf("album %w", ErrNotFound)
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when a required field is missing or blank
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateEmail is returned when an email is already registered
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrForbidden is returned when the caller does not own the resource
	ErrForbidden = errors.New("forbidden")
	// ErrWrongCredential is returned when a password does not match
	ErrWrongCredential = errors.New("wrong credential")
	// ErrUnsupportedMedia is returned when an upload is not an image
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrTooLarge is returned when an upload exceeds the size limit
	ErrTooLarge = errors.New("payload too large")
	// ErrCorruptDocument is returned when a collection document cannot be parsed
	ErrCorruptDocument = errors.New("corrupt document")
)
