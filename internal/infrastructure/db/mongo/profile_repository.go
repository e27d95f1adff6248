package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

const collectionProfiles = "profiles"

// ProfileRepository implements ports.ProfileRepository on MongoDB. The two
// ledger mutations (ClaimGift, AdjustBalance) are single conditional
// FindOneAndUpdate calls: the store evaluates the precondition and applies
// the write atomically, which is what serializes concurrent callers.
type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(collectionProfiles)}
}

type profileDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         string             `bson:"user_id"`
	DisplayName    string             `bson:"display_name"`
	Bio            string             `bson:"bio,omitempty"`
	AvatarURL      string             `bson:"avatar_url,omitempty"`
	Location       string             `bson:"location,omitempty"`
	Website        string             `bson:"website,omitempty"`
	Role           string             `bson:"role"`
	CustomTags     string             `bson:"custom_tags,omitempty"`
	Balance        int64              `bson:"balance"`
	HasClaimedGift bool               `bson:"has_claimed_gift"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (d *profileDoc) toDomain() *domain.Profile {
	return &domain.Profile{
		ID:             d.ID.Hex(),
		UserID:         d.UserID,
		DisplayName:    d.DisplayName,
		Bio:            d.Bio,
		AvatarURL:      d.AvatarURL,
		Location:       d.Location,
		Website:        d.Website,
		Role:           domain.ParseRole(d.Role),
		CustomTags:     d.CustomTags,
		Balance:        d.Balance,
		HasClaimedGift: d.HasClaimedGift,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc profileDoc
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ProfileRepository) FindByUserIDs(ctx context.Context, userIDs []string) ([]*domain.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []*domain.Profile
	for cursor.Next(ctx) {
		var doc profileDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		profiles = append(profiles, doc.toDomain())
	}
	return profiles, cursor.Err()
}

// GetOrCreate upserts keyed on user_id. Concurrent first-accesses for the
// same user race on the unique index and both land on the one document.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID, displayName string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":          userID,
			"display_name":     displayName,
			"role":             string(domain.RoleGuest),
			"balance":          int64(0),
			"has_claimed_gift": false,
			"created_at":       now,
			"updated_at":       now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc profileDoc
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("get or create profile: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ProfileRepository) Update(ctx context.Context, userID string, upd ports.ProfileUpdate) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.DisplayName != nil {
		set["display_name"] = *upd.DisplayName
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.AvatarURL != nil {
		set["avatar_url"] = *upd.AvatarURL
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}
	if upd.Website != nil {
		set["website"] = *upd.Website
	}
	if upd.CustomTags != nil {
		set["custom_tags"] = *upd.CustomTags
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc profileDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return doc.toDomain(), nil
}

// ClaimGift sets the flag and credits the reward in one write, conditioned
// on the flag being unset. The flag can never end up set without the credit
// or vice versa.
func (r *ProfileRepository) ClaimGift(ctx context.Context, userID string, reward int64) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "has_claimed_gift": false}
	update := bson.M{
		"$set": bson.M{"has_claimed_gift": true, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"balance": reward},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc profileDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("claim gift: %w", err)
	}

	// No match: either the profile is missing or the gift was already
	// claimed (possibly by a concurrent request that won the condition).
	if _, ferr := r.FindByUserID(ctx, userID); ferr != nil {
		return nil, ferr
	}
	return nil, domain.ErrAlreadyClaimed
}

// AdjustBalance applies -cost +reward conditioned on balance >= cost at
// write time. A concurrent spender flips the condition and this call reports
// insufficient funds with no mutation.
func (r *ProfileRepository) AdjustBalance(ctx context.Context, userID string, cost, reward int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "balance": bson.M{"$gte": cost}}
	update := bson.M{
		"$inc": bson.M{"balance": reward - cost},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc profileDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.Balance, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}

	if _, ferr := r.FindByUserID(ctx, userID); ferr != nil {
		return 0, ferr
	}
	return 0, domain.ErrInsufficientFunds
}

// EnsureIndexes creates the unique user_id index the upsert relies on.
func (r *ProfileRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
