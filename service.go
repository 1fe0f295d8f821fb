package pixo

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service wires the four registries over shared collections.
// Its method set is the union of the registries' methods.
type Service struct {
	*UserRegistry
	*AlbumRegistry
	*ImageRegistry
	*GuestSlotManager
}

// ServiceConfig holds the dependencies and options of a Service.
type ServiceConfig struct {
	Documents   DocumentStore
	Objects     ObjectStore
	Credentials Credentials
	Collections Collections

	// RecoverCorrupt loads unparsable collection documents as empty (with a
	// warning) instead of failing the operation.
	RecoverCorrupt bool
	// MaxUploadSize is the upload limit in bytes (default: DefaultMaxUploadSize).
	MaxUploadSize int64
	// CleanupTimeout bounds orphan-object cleanup after a failed save (default: 30s).
	CleanupTimeout time.Duration
	// Clock returns the current time (default: time.Now).
	Clock func() time.Time
}

// NewService validates cfg and builds the registries.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Documents == nil {
		return nil, errors.New("new service: document store cannot be nil")
	}
	if cfg.Objects == nil {
		return nil, errors.New("new service: object store cannot be nil")
	}
	if cfg.Credentials == nil {
		return nil, errors.New("new service: credentials cannot be nil")
	}
	if err := cfg.Collections.Validate(); err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}

	maxUploadSize := cfg.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	opts := CollectionOptions{RecoverCorrupt: cfg.RecoverCorrupt}
	users := NewListCollection[User](cfg.Documents, cfg.Collections.Users, opts)
	albums := NewListCollection[Album](cfg.Documents, cfg.Collections.Albums, opts)
	images := NewListCollection[Image](cfg.Documents, cfg.Collections.Images, opts)
	guests := NewMapCollection[GuestSlot](cfg.Documents, cfg.Collections.Guests, opts)

	return &Service{
		UserRegistry: &UserRegistry{
			users: users,
			creds: cfg.Credentials,
			clock: clock,
		},
		AlbumRegistry: &AlbumRegistry{
			albums: albums,
			images: images,
			clock:  clock,
		},
		ImageRegistry: &ImageRegistry{
			albums:         albums,
			images:         images,
			objects:        cfg.Objects,
			maxUploadSize:  maxUploadSize,
			cleanupTimeout: cleanupTimeout,
			clock:          clock,
		},
		GuestSlotManager: &GuestSlotManager{
			guests:         guests,
			objects:        cfg.Objects,
			maxUploadSize:  maxUploadSize,
			cleanupTimeout: cleanupTimeout,
			clock:          clock,
		},
	}, nil
}

// MaxUploadSize returns the upload limit in bytes.
func (s *Service) MaxUploadSize() int64 {
	return s.ImageRegistry.maxUploadSize
}

// Stats counts the records of every collection.
type Stats struct {
	Users      int `json:"users" yaml:"users"`
	Albums     int `json:"albums" yaml:"albums"`
	Images     int `json:"images" yaml:"images"`
	Attached   int `json:"attached_images" yaml:"attached_images"`
	GuestSlots int `json:"guest_slots" yaml:"guest_slots"`
}

// Stats loads every collection and counts its records.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	users, err := s.UserRegistry.users.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	st.Users = len(users)

	albums, err := s.AlbumRegistry.albums.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	st.Albums = len(albums)

	images, err := s.ImageRegistry.images.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	st.Images = len(images)
	for _, img := range images {
		if img.AlbumID != nil {
			st.Attached++
		}
	}

	slots, err := s.GuestSlotManager.guests.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	st.GuestSlots = len(slots)

	return st, nil
}
