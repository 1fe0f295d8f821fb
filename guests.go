package pixo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GuestCookieName is the cookie carrying the guest identity.
const GuestCookieName = "guest_id"

// GuestCookieTTL is the lifetime of the guest cookie, renewed on every guest upload.
const GuestCookieTTL = 24 * time.Hour

// GuestSlotManager keeps at most one live upload per guest identity.
//
// Per identity the slot moves NoSlot -> HasSlot on the first upload and
// HasSlot -> HasSlot on every later one; the previous object is discarded.
type GuestSlotManager struct {
	guests         *Collection[map[string]GuestSlot]
	objects        ObjectStore
	maxUploadSize  int64
	cleanupTimeout time.Duration
	clock          func() time.Time
}

// ResolveGuest returns the identity carried by the cookie, or a fresh one
// when the cookie is absent.
func (m *GuestSlotManager) ResolveGuest(cookieValue string) string {
	if cookieValue != "" {
		return cookieValue
	}
	return uuid.NewString()
}

// UploadGuest replaces the slot of guestID with a new object.
//
// The previous object is deleted before the new one is stored; a failed delete
// is logged and never blocks the upload. The slot record is overwritten and the
// whole slot map persisted. When storing the new object fails, the slot record
// is left unchanged and may point at the already deleted previous object.
//
// Returns:
//   - ErrInvalidInput when guestID is empty or the file is missing
//   - ErrUnsupportedMedia when the content type is not image/*
//   - ErrTooLarge when the file exceeds the upload limit
func (m *GuestSlotManager) UploadGuest(ctx context.Context, guestID string, file Upload, title string) (GuestUpload, error) {
	if guestID == "" {
		return GuestUpload{}, fmt.Errorf("upload guest: %w: guest id is required", ErrInvalidInput)
	}

	if err := ValidateUpload(file, m.maxUploadSize); err != nil {
		return GuestUpload{}, fmt.Errorf("upload guest: %w", err)
	}

	var result GuestUpload
	err := m.guests.Update(ctx, func(slots map[string]GuestSlot) (map[string]GuestSlot, error) {
		if previous, ok := slots[guestID]; ok {
			deleteObjectBestEffort(ctx, m.objects, previous.Key)
		}

		key := GuestKey(uuid.NewString(), FileExt(file.Filename))
		if err := m.objects.Put(ctx, key, file.Content, file.Size, file.ContentType); err != nil {
			return nil, fmt.Errorf("upload guest %s: put object: %w", key, err)
		}

		slot := GuestSlot{
			Key:        key,
			Title:      TitleOr(title, file.Filename),
			UploadedAt: Timestamp(m.clock()),
			URL:        m.objects.URL(key),
		}
		slots[guestID] = slot

		result = GuestUpload{
			GuestID: guestID,
			Key:     slot.Key,
			URL:     slot.URL,
			Title:   slot.Title,
		}
		return slots, nil
	})
	if err != nil {
		// result is only set once the object is stored, so the save failed.
		if result.Key != "" {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), m.cleanupTimeout)
			defer cancel()
			deleteObjectBestEffort(cleanupCtx, m.objects, result.Key)
		}
		return GuestUpload{}, err
	}

	return result, nil
}

// GetGuestSlot returns the live slot of guestID.
func (m *GuestSlotManager) GetGuestSlot(ctx context.Context, guestID string) (GuestSlot, error) {
	slots, err := m.guests.Load(ctx)
	if err != nil {
		return GuestSlot{}, fmt.Errorf("get guest slot: %w", err)
	}

	slot, ok := slots[guestID]
	if !ok {
		return GuestSlot{}, fmt.Errorf("get guest slot %s: %w", guestID, ErrNotFound)
	}

	return slot, nil
}
