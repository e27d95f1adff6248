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
)

const collectionCarts = "carts"

// CartRepository implements ports.CartRepository on MongoDB.
type CartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{col: db.Collection(collectionCarts)}
}

type cartItemDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	ProductID string             `bson:"product_id"`
	Quantity  int64              `bson:"quantity"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *cartItemDoc) toDomain() domain.CartItem {
	return domain.CartItem{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		CreatedAt: d.CreatedAt,
	}
}

func (r *CartRepository) ItemsByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer cursor.Close(ctx)

	var items []domain.CartItem
	for cursor.Next(ctx) {
		var doc cartItemDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode cart item: %w", err)
		}
		items = append(items, doc.toDomain())
	}
	return items, cursor.Err()
}

// AddItem upserts on (user_id, product_id): an existing line gets its
// quantity incremented, otherwise a new line is inserted.
func (r *CartRepository) AddItem(ctx context.Context, userID, productID string, quantity int64) (*domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "product_id": productID}
	update := bson.M{
		"$inc":         bson.M{"quantity": quantity},
		"$setOnInsert": bson.M{"user_id": userID, "product_id": productID, "created_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc cartItemDoc
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	item := doc.toDomain()
	return &item, nil
}

// RemoveItem deletes one cart line scoped to its owner. Deleting a line that
// is already gone is a no-op.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, itemID string) error {
	oid, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.col.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

// EnsureIndexes creates the per-user cart lookup index.
func (r *CartRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
