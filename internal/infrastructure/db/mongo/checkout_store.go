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

const collectionOrders = "orders"

// CheckoutStore implements ports.CheckoutStore with a multi-document
// transaction: the cart clear, the balance deduction, and the order insert
// commit together or roll back together. Both guards are re-evaluated at
// write time: the cart clear must remove every snapshotted line and the
// deduction matches only while the balance covers the total, so concurrent
// checkouts for the same user serialize at the store and the loser rolls
// back without deducting or writing an order.
type CheckoutStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewCheckoutStore(client *mongo.Client, db *mongo.Database) *CheckoutStore {
	return &CheckoutStore{client: client, db: db}
}

type orderDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Items     []orderItemDoc     `bson:"items"`
	Total     int64              `bson:"total"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
}

type orderItemDoc struct {
	ProductID string `bson:"product_id"`
	Name      string `bson:"name"`
	Price     int64  `bson:"price"`
	Quantity  int64  `bson:"quantity"`
}

func fromOrder(o *domain.Order) orderDoc {
	items := make([]orderItemDoc, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDoc{ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	return orderDoc{
		UserID:    o.UserID,
		Items:     items,
		Total:     o.Total,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

func (s *CheckoutStore) Commit(ctx context.Context, userID string, cartItemIDs []string, order *domain.Order) (int64, error) {
	session, err := s.client.StartSession()
	if err != nil {
		return 0, fmt.Errorf("checkout: start session: %w", err)
	}
	defer session.EndSession(ctx)

	itemOIDs := make([]primitive.ObjectID, 0, len(cartItemIDs))
	for _, id := range cartItemIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		itemOIDs = append(itemOIDs, oid)
	}

	if len(itemOIDs) == 0 {
		return 0, domain.ErrEmptyCart
	}

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// 1. Claim the snapshotted cart lines. A short count means another
		// checkout already consumed (some of) this cart between snapshot
		// and commit; aborting here rolls the whole transaction back, so
		// the loser deducts nothing and writes no order. Lines added after
		// the snapshot survive for the next checkout.
		del, err := s.db.Collection(collectionCarts).
			DeleteMany(sc, bson.M{"_id": bson.M{"$in": itemOIDs}, "user_id": userID})
		if err != nil {
			return nil, fmt.Errorf("clear cart: %w", err)
		}
		if del.DeletedCount != int64(len(itemOIDs)) {
			return nil, domain.ErrEmptyCart
		}

		// 2. Conditional deduction. No match means the balance no longer
		// covers the total (or the profile vanished); either way nothing
		// in this transaction is applied.
		filter := bson.M{"user_id": userID, "balance": bson.M{"$gte": order.Total}}
		update := bson.M{
			"$inc": bson.M{"balance": -order.Total},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var profile profileDoc
		if err := s.db.Collection(collectionProfiles).
			FindOneAndUpdate(sc, filter, update, opts).Decode(&profile); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, domain.ErrInsufficientFunds
			}
			return nil, fmt.Errorf("deduct balance: %w", err)
		}

		// 3. Record the order.
		res, err := s.db.Collection(collectionOrders).InsertOne(sc, fromOrder(order))
		if err != nil {
			return nil, fmt.Errorf("insert order: %w", err)
		}
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			order.ID = oid.Hex()
		}

		return profile.Balance, nil
	})
	if err != nil {
		if isTransientTxnError(err) {
			return 0, domain.ErrCheckoutConflict
		}
		return 0, err
	}

	balance, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("checkout: unexpected transaction result %T", result)
	}
	return balance, nil
}

// isTransientTxnError reports whether the driver gave up retrying a write
// conflict inside WithTransaction. Surfaced to callers as
// domain.ErrCheckoutConflict so the client gets a retryable 409, not a 500.
func isTransientTxnError(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError")
}

// OrderRepository implements ports.OrderRepository on MongoDB.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders)}
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc orderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		items := make([]domain.OrderItem, len(doc.Items))
		for i, it := range doc.Items {
			items[i] = domain.OrderItem{ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity}
		}
		orders = append(orders, &domain.Order{
			ID:        doc.ID.Hex(),
			UserID:    doc.UserID,
			Items:     items,
			Total:     doc.Total,
			Status:    doc.Status,
			CreatedAt: doc.CreatedAt,
		})
	}
	return orders, cursor.Err()
}
