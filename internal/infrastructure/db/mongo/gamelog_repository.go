package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linhthach/sanctum/internal/core/domain"
)

const collectionGameLogs = "game_logs"

// GameLogRepository implements ports.GameLogRepository on MongoDB.
type GameLogRepository struct {
	col *mongo.Collection
}

func NewGameLogRepository(db *mongo.Database) *GameLogRepository {
	return &GameLogRepository{col: db.Collection(collectionGameLogs)}
}

type gameLogDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	GameType  string             `bson:"game_type"`
	Bet       int64              `bson:"bet"`
	Reward    int64              `bson:"reward"`
	Result    string             `bson:"result"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *GameLogRepository) Insert(ctx context.Context, log *domain.GameLog) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, gameLogDoc{
		UserID:    log.UserID,
		GameType:  string(log.GameType),
		Bet:       log.Bet,
		Reward:    log.Reward,
		Result:    log.Result,
		CreatedAt: log.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert game log: %w", err)
	}
	return nil
}

func (r *GameLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.GameLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list game logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []*domain.GameLog
	for cursor.Next(ctx) {
		var doc gameLogDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode game log: %w", err)
		}
		logs = append(logs, &domain.GameLog{
			ID:        doc.ID.Hex(),
			UserID:    doc.UserID,
			GameType:  domain.GameType(doc.GameType),
			Bet:       doc.Bet,
			Reward:    doc.Reward,
			Result:    doc.Result,
			CreatedAt: doc.CreatedAt,
		})
	}
	return logs, cursor.Err()
}

// EnsureIndexes creates the history feed index.
func (r *GameLogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}
