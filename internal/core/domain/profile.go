package domain

import "time"

// Profile is the application-owned record for a user, distinct from the
// externally-owned Identity. Created lazily on first access; never deleted.
type Profile struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	UserID         string    `json:"user_id" bson:"user_id"`
	DisplayName    string    `json:"display_name" bson:"display_name"`
	Bio            string    `json:"bio,omitempty" bson:"bio,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	Location       string    `json:"location,omitempty" bson:"location,omitempty"`
	Website        string    `json:"website,omitempty" bson:"website,omitempty"`
	Role           Role      `json:"role" bson:"role"`
	CustomTags     string    `json:"custom_tags,omitempty" bson:"custom_tags,omitempty"`
	Balance        int64     `json:"balance" bson:"balance"`
	HasClaimedGift bool      `json:"has_claimed_gift" bson:"has_claimed_gift"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// Tags returns the profile's decoded custom tags.
func (p *Profile) Tags() []CustomTag {
	return ParseCustomTags(p.CustomTags)
}

// giftRewards scales the newbie gift with the claimant's rank.
var giftRewards = map[Role]int64{
	RoleGuest:     1000,
	RoleBasic:     1000,
	RoleAdvanced:  2000,
	RoleModerator: 5000,
	RoleOwner:     10000,
}

// GiftReward returns the one-time newbie gift amount for a role.
func GiftReward(r Role) int64 {
	if amt, ok := giftRewards[r]; ok {
		return amt
	}
	return giftRewards[RoleGuest]
}
