package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

// stubProfileRepo mirrors the conditional-write semantics of the real Mongo
// repository: gift claim and balance adjustment re-check their condition
// under the lock, so concurrent callers race exactly like they would against
// the store.
type stubProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile

	findCalls  int
	batchCalls int
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{profiles: make(map[string]*domain.Profile)}
}

func (r *stubProfileRepo) put(p *domain.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.profiles[p.UserID] = &clone
}

func (r *stubProfileRepo) FindByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) FindByUserIDs(_ context.Context, userIDs []string) ([]*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchCalls++
	var out []*domain.Profile
	for _, id := range userIDs {
		if p, ok := r.profiles[id]; ok {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubProfileRepo) GetOrCreate(_ context.Context, userID, displayName string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		clone := *p
		return &clone, nil
	}
	p := &domain.Profile{
		UserID:      userID,
		DisplayName: displayName,
		Role:        domain.RoleGuest,
		CreatedAt:   time.Now().UTC(),
	}
	r.profiles[userID] = p
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) Update(_ context.Context, userID string, upd ports.ProfileUpdate) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	if upd.DisplayName != nil {
		p.DisplayName = *upd.DisplayName
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	if upd.AvatarURL != nil {
		p.AvatarURL = *upd.AvatarURL
	}
	if upd.CustomTags != nil {
		p.CustomTags = *upd.CustomTags
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) ClaimGift(_ context.Context, userID string, reward int64) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	if p.HasClaimedGift {
		return nil, domain.ErrAlreadyClaimed
	}
	p.HasClaimedGift = true
	p.Balance += reward
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) AdjustBalance(_ context.Context, userID string, cost, reward int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return 0, domain.ErrProfileNotFound
	}
	if p.Balance < cost {
		return 0, domain.ErrInsufficientFunds
	}
	p.Balance += reward - cost
	return p.Balance, nil
}

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// GetProfiles
// ---------------------------------------------------------------------------

func TestProfileService_GetProfiles_DedupesAndOmitsMissing(t *testing.T) {
	repo := newStubProfileRepo()
	repo.put(&domain.Profile{UserID: "a", Role: domain.RoleBasic})
	svc := NewProfileService(repo, discardLogger)

	got, err := svc.GetProfiles(context.Background(), []string{"a", "a", "", "ghost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(got))
	}
	if got["a"] == nil || got["a"].Role != domain.RoleBasic {
		t.Errorf("unexpected profile for a: %+v", got["a"])
	}
}

func TestProfileService_GetProfiles_EmptyInput(t *testing.T) {
	repo := newStubProfileRepo()
	svc := NewProfileService(repo, discardLogger)

	got, err := svc.GetProfiles(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
	if repo.batchCalls != 0 {
		t.Errorf("empty input must not hit the repository, got %d calls", repo.batchCalls)
	}
}

// ---------------------------------------------------------------------------
// GetOrCreateProfile
// ---------------------------------------------------------------------------

func TestProfileService_GetOrCreate_DefaultsGuestWithFallbackName(t *testing.T) {
	repo := newStubProfileRepo()
	svc := NewProfileService(repo, discardLogger)

	p, err := svc.GetOrCreateProfile(context.Background(), "user-1", "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Role != domain.RoleGuest {
		t.Errorf("new profile role = %s, want guest", p.Role)
	}
	if p.DisplayName != "Wanderer" {
		t.Errorf("display name = %q, want fallback", p.DisplayName)
	}
	if p.Balance != 0 {
		t.Errorf("new profile balance = %d, want 0", p.Balance)
	}
}

func TestProfileService_GetOrCreate_ReturnsExisting(t *testing.T) {
	repo := newStubProfileRepo()
	repo.put(&domain.Profile{UserID: "user-1", DisplayName: "Kept", Role: domain.RoleModerator, Balance: 42})
	svc := NewProfileService(repo, discardLogger)

	p, err := svc.GetOrCreateProfile(context.Background(), "user-1", "New Name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DisplayName != "Kept" || p.Balance != 42 {
		t.Errorf("existing profile must be returned untouched, got %+v", p)
	}
}

// ---------------------------------------------------------------------------
// ClaimNewbieGift
// ---------------------------------------------------------------------------

func TestProfileService_ClaimGift_RewardScalesWithRole(t *testing.T) {
	cases := map[domain.Role]int64{
		domain.RoleBasic:     1000,
		domain.RoleAdvanced:  2000,
		domain.RoleModerator: 5000,
		domain.RoleOwner:     10000,
	}
	for role, want := range cases {
		repo := newStubProfileRepo()
		repo.put(&domain.Profile{UserID: "u", Role: role, Balance: 100})
		svc := NewProfileService(repo, discardLogger)

		result, err := svc.ClaimNewbieGift(context.Background(), "u")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", role, err)
		}
		if result.Reward != want {
			t.Errorf("%s: reward = %d, want %d", role, result.Reward, want)
		}
		if result.NewBalance != 100+want {
			t.Errorf("%s: new balance = %d, want %d", role, result.NewBalance, 100+want)
		}
	}
}

func TestProfileService_ClaimGift_ReplayRejectedWithoutMutation(t *testing.T) {
	repo := newStubProfileRepo()
	repo.put(&domain.Profile{UserID: "u", Role: domain.RoleBasic})
	svc := NewProfileService(repo, discardLogger)

	if _, err := svc.ClaimNewbieGift(context.Background(), "u"); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	_, err := svc.ClaimNewbieGift(context.Background(), "u")
	if !errors.Is(err, domain.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}

	p, _ := repo.FindByUserID(context.Background(), "u")
	if p.Balance != 1000 {
		t.Errorf("replay must not move the balance, got %d", p.Balance)
	}
}

func TestProfileService_ClaimGift_ConcurrentClaimsPayOnce(t *testing.T) {
	repo := newStubProfileRepo()
	repo.put(&domain.Profile{UserID: "u", Role: domain.RoleBasic})
	svc := NewProfileService(repo, discardLogger)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ClaimNewbieGift(context.Background(), "u")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, domain.ErrAlreadyClaimed) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly 1 successful claim, got %d", succeeded)
	}

	p, _ := repo.FindByUserID(context.Background(), "u")
	if p.Balance != 1000 {
		t.Errorf("balance = %d, want one reward exactly", p.Balance)
	}
}

func TestProfileService_ClaimGift_MissingProfile(t *testing.T) {
	svc := NewProfileService(newStubProfileRepo(), discardLogger)

	_, err := svc.ClaimNewbieGift(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// UpdateProfile
// ---------------------------------------------------------------------------

func TestProfileService_Update_RejectsBlankDisplayName(t *testing.T) {
	repo := newStubProfileRepo()
	repo.put(&domain.Profile{UserID: "u", DisplayName: "Original"})
	svc := NewProfileService(repo, discardLogger)

	blank := "   "
	_, err := svc.UpdateProfile(context.Background(), "u", ports.ProfileUpdate{DisplayName: &blank})
	if err == nil {
		t.Fatal("expected error for blank display name")
	}

	p, _ := repo.FindByUserID(context.Background(), "u")
	if p.DisplayName != "Original" {
		t.Errorf("display name must be untouched, got %q", p.DisplayName)
	}
}
