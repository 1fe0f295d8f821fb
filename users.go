package pixo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Credentials isolates how passwords are stored and compared, so a hashing
// scheme can replace plain comparison without touching registry logic.
type Credentials interface {
	// Prepare converts a password into its stored form.
	Prepare(password string) (string, error)
	// Match reports whether supplied matches the stored form.
	Match(stored, supplied string) bool
}

// UserRegistry manages user records keyed by id and unique email.
type UserRegistry struct {
	users *Collection[[]User]
	creds Credentials
	clock func() time.Time
}

// Register creates a user with a fresh id.
//
// Returns:
//   - ErrInvalidInput when email or password is empty
//   - ErrDuplicateEmail when any user already has email (case-sensitive)
func (r *UserRegistry) Register(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, fmt.Errorf("register: %w: email and password are required", ErrInvalidInput)
	}

	stored, err := r.creds.Prepare(password)
	if err != nil {
		return User{}, fmt.Errorf("register: %w", err)
	}

	var created User
	err = r.users.Update(ctx, func(users []User) ([]User, error) {
		if _, ok := findUserByEmail(users, email); ok {
			return nil, fmt.Errorf("register %s: %w", email, ErrDuplicateEmail)
		}

		created = User{
			ID:        uuid.NewString(),
			Email:     email,
			Password:  stored,
			CreatedAt: Timestamp(r.clock()),
		}
		return append(users, created), nil
	})
	if err != nil {
		return User{}, err
	}

	return created, nil
}

// Authenticate checks an email/password pair.
//
// Returns:
//   - ErrInvalidInput when email or password is empty
//   - ErrUserNotFound when no user has email
//   - ErrWrongCredential when the password does not match
func (r *UserRegistry) Authenticate(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, fmt.Errorf("authenticate: %w: email and password are required", ErrInvalidInput)
	}

	users, err := r.users.Load(ctx)
	if err != nil {
		return User{}, fmt.Errorf("authenticate: %w", err)
	}

	i, ok := findUserByEmail(users, email)
	if !ok {
		return User{}, fmt.Errorf("authenticate %s: %w", email, ErrUserNotFound)
	}

	if !r.creds.Match(users[i].Password, password) {
		return User{}, fmt.Errorf("authenticate %s: %w", email, ErrWrongCredential)
	}

	return users[i], nil
}

// GetUser returns the user with id userID.
func (r *UserRegistry) GetUser(ctx context.Context, userID string) (User, error) {
	users, err := r.users.Load(ctx)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}

	i, ok := findUserByID(users, userID)
	if !ok {
		return User{}, fmt.Errorf("get user %s: %w", userID, ErrUserNotFound)
	}

	return users[i], nil
}

// UpdateProfile replaces username and lang unconditionally and the email when
// a different, non-empty one is given. An empty lang becomes DefaultLang
// before inputs are trimmed, so a whitespace-only lang is stored as "".
//
// Returns:
//   - ErrUserNotFound when userID is unknown
//   - ErrDuplicateEmail when the new email belongs to another user
func (r *UserRegistry) UpdateProfile(ctx context.Context, userID, email, username, lang string) (User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if lang == "" {
		lang = DefaultLang
	}
	lang = strings.TrimSpace(lang)

	var updated User
	err := r.users.Update(ctx, func(users []User) ([]User, error) {
		i, ok := findUserByID(users, userID)
		if !ok {
			return nil, fmt.Errorf("update profile %s: %w", userID, ErrUserNotFound)
		}

		if email != "" && email != users[i].Email {
			if _, taken := findUserByEmail(users, email); taken {
				return nil, fmt.Errorf("update profile %s: %w", userID, ErrDuplicateEmail)
			}
			users[i].Email = email
		}

		users[i].Username = &username
		users[i].Lang = &lang
		updated = users[i]
		return users, nil
	})
	if err != nil {
		return User{}, err
	}

	return updated, nil
}

// ChangePassword overwrites the stored password after checking the old one.
//
// Returns:
//   - ErrInvalidInput when either password is empty
//   - ErrUserNotFound when userID is unknown
//   - ErrWrongCredential when oldPassword does not match
func (r *UserRegistry) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("change password: %w: old and new password are required", ErrInvalidInput)
	}

	stored, err := r.creds.Prepare(newPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	return r.users.Update(ctx, func(users []User) ([]User, error) {
		i, ok := findUserByID(users, userID)
		if !ok {
			return nil, fmt.Errorf("change password %s: %w", userID, ErrUserNotFound)
		}

		if !r.creds.Match(users[i].Password, oldPassword) {
			return nil, fmt.Errorf("change password %s: %w", userID, ErrWrongCredential)
		}

		users[i].Password = stored
		return users, nil
	})
}

func findUserByEmail(users []User, email string) (int, bool) {
	for i := range users {
		if users[i].Email == email {
			return i, true
		}
	}
	return -1, false
}

func findUserByID(users []User, id string) (int, bool) {
	for i := range users {
		if users[i].ID == id {
			return i, true
		}
	}
	return -1, false
}
