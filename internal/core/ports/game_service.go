package ports

import (
	"context"

	"github.com/linhthach/sanctum/internal/core/domain"
)

// GameResult is the outcome of one earn-game play.
type GameResult struct {
	Game       domain.GameType `json:"game"`
	Cost       int64           `json:"cost"`
	Reward     int64           `json:"reward"`
	Tier       string          `json:"tier"`
	Critical   bool            `json:"critical,omitempty"`
	NewBalance int64           `json:"new_balance"`
}

// GameService defines the earn games. Every play applies its cost and reward
// in a single conditional balance write, the same primitive checkout uses.
type GameService interface {
	// SpinWheel costs 500 and pays a tiered random reward.
	SpinWheel(ctx context.Context, userID string) (*GameResult, error)
	// Mine is free and pays a small random reward, with a rare critical.
	Mine(ctx context.Context, userID string) (*GameResult, error)
	// OpenMysteryBox costs 5000 and pays a tiered random reward.
	OpenMysteryBox(ctx context.Context, userID string) (*GameResult, error)
	// History returns the user's most recent plays, newest first.
	History(ctx context.Context, userID string, limit int) ([]*domain.GameLog, error)
}
