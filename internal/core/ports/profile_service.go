package ports

import (
	"context"

	"github.com/linhthach/sanctum/internal/core/domain"
)

// GiftResult is returned by ClaimNewbieGift.
type GiftResult struct {
	Reward     int64
	NewBalance int64
}

// ProfileService defines the profile use cases.
type ProfileService interface {
	// GetProfile returns the stored profile or domain.ErrProfileNotFound.
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	// GetProfiles batch-fetches profiles keyed by userID; absent ids are
	// omitted from the map.
	GetProfiles(ctx context.Context, userIDs []string) (map[string]*domain.Profile, error)
	// GetOrCreateProfile self-heals a missing profile with defaults.
	GetOrCreateProfile(ctx context.Context, userID, defaultDisplayName string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*domain.Profile, error)
	// ClaimNewbieGift credits the role-scaled one-time reward, or returns
	// domain.ErrAlreadyClaimed with no mutation.
	ClaimNewbieGift(ctx context.Context, userID string) (*GiftResult, error)
}
