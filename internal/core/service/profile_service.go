package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

type profileService struct {
	repo ports.ProfileRepository
	log  zerolog.Logger
}

// NewProfileService returns a ProfileService implementation.
func NewProfileService(repo ports.ProfileRepository, log zerolog.Logger) ports.ProfileService {
	return &profileService{repo: repo, log: log}
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	if userID == "" {
		return nil, domain.ErrProfileNotFound
	}
	return s.repo.FindByUserID(ctx, userID)
}

func (s *profileService) GetProfiles(ctx context.Context, userIDs []string) (map[string]*domain.Profile, error) {
	result := make(map[string]*domain.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	// Dedupe before the batch query.
	seen := make(map[string]struct{}, len(userIDs))
	unique := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	profiles, err := s.repo.FindByUserIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("batch profiles: %w", err)
	}
	for _, p := range profiles {
		result[p.UserID] = p
	}
	return result, nil
}

func (s *profileService) GetOrCreateProfile(ctx context.Context, userID, defaultDisplayName string) (*domain.Profile, error) {
	if userID == "" {
		return nil, domain.ErrProfileNotFound
	}
	name := strings.TrimSpace(defaultDisplayName)
	if name == "" {
		name = "Wanderer"
	}

	profile, err := s.repo.GetOrCreate(ctx, userID, name)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("failed to get or create profile")
		return nil, err
	}
	return profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, upd ports.ProfileUpdate) (*domain.Profile, error) {
	if userID == "" {
		return nil, domain.ErrProfileNotFound
	}
	if upd.DisplayName != nil {
		trimmed := strings.TrimSpace(*upd.DisplayName)
		if trimmed == "" {
			return nil, fmt.Errorf("display name must not be empty")
		}
		upd.DisplayName = &trimmed
	}
	return s.repo.Update(ctx, userID, upd)
}

// ClaimNewbieGift credits the one-time role-scaled reward. The flag check
// and the credit are a single conditional write at the repository, so a
// concurrent double claim or a crash mid-claim can never split them.
func (s *profileService) ClaimNewbieGift(ctx context.Context, userID string) (*ports.GiftResult, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.HasClaimedGift {
		return nil, domain.ErrAlreadyClaimed
	}

	reward := domain.GiftReward(profile.Role)
	updated, err := s.repo.ClaimGift(ctx, userID, reward)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("role", string(profile.Role)).
		Int64("reward", reward).
		Msg("newbie gift claimed")

	return &ports.GiftResult{Reward: reward, NewBalance: updated.Balance}, nil
}
