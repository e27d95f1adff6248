package ports

import (
	"context"

	"github.com/linhthach/sanctum/internal/core/domain"
)

// ProfileUpdate carries the optional fields of a profile edit. Nil pointers
// leave the stored value untouched. Role and balance are deliberately absent:
// role changes go through admin tooling and balance only moves via the
// ledger operations below.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
	Location    *string
	Website     *string
	CustomTags  *string
}

// ProfileRepository defines persistence for profiles, including the two
// conditional balance mutations this core owns. All serialization is pushed
// to the store; implementations must make these safe under concurrent calls
// for the same userID.
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	// FindByUserIDs batch-fetches profiles; missing ids are simply absent
	// from the result, not an error.
	FindByUserIDs(ctx context.Context, userIDs []string) ([]*domain.Profile, error)
	// GetOrCreate returns the existing profile or creates the default one
	// (guest role, zero balance) in a single idempotent upsert keyed on
	// userID. Two concurrent first-accesses must yield one profile.
	GetOrCreate(ctx context.Context, userID, displayName string) (*domain.Profile, error)
	Update(ctx context.Context, userID string, upd ProfileUpdate) (*domain.Profile, error)

	// ClaimGift atomically sets has_claimed_gift and credits the reward in
	// one conditional write (filtered on the flag being unset). Returns
	// domain.ErrAlreadyClaimed without mutation when the flag is already set.
	ClaimGift(ctx context.Context, userID string, reward int64) (*domain.Profile, error)

	// AdjustBalance atomically applies -cost +reward to the balance,
	// conditioned on the current balance covering cost. Returns the new
	// balance, or domain.ErrInsufficientFunds with no mutation when it
	// does not.
	AdjustBalance(ctx context.Context, userID string, cost, reward int64) (int64, error)
}
