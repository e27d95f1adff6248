package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

const (
	wheelCost = 500
	boxCost   = 5000

	defaultHistoryLimit = 10
)

// GameLogSink receives play records for asynchronous persistence so game
// endpoints never block on the history write.
type GameLogSink interface {
	Record(log domain.GameLog)
}

type gameService struct {
	profiles ports.ProfileRepository
	logs     ports.GameLogRepository
	sink     GameLogSink
	balances BalanceCache
	log      zerolog.Logger

	// roll is swappable in tests; defaults to rand.Float64.
	roll func() float64
}

// NewGameService returns a GameService implementation.
func NewGameService(
	profiles ports.ProfileRepository,
	logs ports.GameLogRepository,
	sink GameLogSink,
	balances BalanceCache,
	log zerolog.Logger,
) ports.GameService {
	return &gameService{
		profiles: profiles,
		logs:     logs,
		sink:     sink,
		balances: balances,
		log:      log,
		roll:     rand.Float64,
	}
}

// SpinWheel plays the lucky wheel. The cost check and the net balance change
// are one conditional write: losing the balance race means no play, no log.
func (s *gameService) SpinWheel(ctx context.Context, userID string) (*ports.GameResult, error) {
	var reward int64
	var tier string
	switch r := s.roll(); {
	case r < 0.05:
		reward, tier = 30000, "legendary"
	case r < 0.20:
		reward, tier = 10000, "epic"
	case r < 0.50:
		reward, tier = 2000, "rare"
	default:
		reward, tier = 100, "trash"
	}

	newBalance, err := s.profiles.AdjustBalance(ctx, userID, wheelCost, reward)
	if err != nil {
		return nil, err
	}
	s.afterPlay(ctx, userID, domain.GameLuckyWheel, wheelCost, reward, tier)

	return &ports.GameResult{
		Game:       domain.GameLuckyWheel,
		Cost:       wheelCost,
		Reward:     reward,
		Tier:       tier,
		NewBalance: newBalance,
	}, nil
}

// Mine is the free idle game: a small reward with a rare tenfold critical.
// Only criticals are logged to keep the history collection from silting up.
func (s *gameService) Mine(ctx context.Context, userID string) (*ports.GameResult, error) {
	base := int64(7 + rand.IntN(4)) // 7..10
	critical := s.roll() < 0.01
	reward := base
	if critical {
		reward = base * 10
	}

	newBalance, err := s.profiles.AdjustBalance(ctx, userID, 0, reward)
	if err != nil {
		return nil, err
	}
	if critical {
		s.afterPlay(ctx, userID, domain.GameMining, 0, reward, "critical")
	} else if s.balances != nil {
		if err := s.balances.Invalidate(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("balance cache invalidation failed")
		}
	}

	return &ports.GameResult{
		Game:       domain.GameMining,
		Reward:     reward,
		Critical:   critical,
		Tier:       "common",
		NewBalance: newBalance,
	}, nil
}

func (s *gameService) OpenMysteryBox(ctx context.Context, userID string) (*ports.GameResult, error) {
	var reward int64
	var tier string
	switch r := s.roll(); {
	case r < 0.01:
		reward, tier = 100000, "legendary"
	case r < 0.10:
		reward, tier = 20000, "epic"
	case r < 0.40:
		reward, tier = 6000, "rare"
	default:
		reward, tier = 1000, "trash"
	}

	newBalance, err := s.profiles.AdjustBalance(ctx, userID, boxCost, reward)
	if err != nil {
		return nil, err
	}
	s.afterPlay(ctx, userID, domain.GameMysteryBox, boxCost, reward, tier)

	return &ports.GameResult{
		Game:       domain.GameMysteryBox,
		Cost:       boxCost,
		Reward:     reward,
		Tier:       tier,
		NewBalance: newBalance,
	}, nil
}

func (s *gameService) History(ctx context.Context, userID string, limit int) ([]*domain.GameLog, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.logs.ListByUser(ctx, userID, limit)
}

func (s *gameService) afterPlay(ctx context.Context, userID string, game domain.GameType, cost, reward int64, result string) {
	if s.balances != nil {
		if err := s.balances.Invalidate(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("balance cache invalidation failed")
		}
	}
	if s.sink != nil {
		s.sink.Record(domain.GameLog{
			UserID:    userID,
			GameType:  game,
			Bet:       cost,
			Reward:    reward,
			Result:    result,
			CreatedAt: time.Now().UTC(),
		})
	}
}
