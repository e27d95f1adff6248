package domain

import (
	"errors"
	"time"
)

// ProductStatus marks whether a product is visible in the shop.
type ProductStatus string

const (
	ProductActive  ProductStatus = "active"
	ProductRetired ProductStatus = "retired"
)

// Product is a catalog entry. Read-only from the ledger's perspective:
// checkout consumes the current price but never mutates the product.
type Product struct {
	ID            string        `json:"id" bson:"_id,omitempty"`
	Name          string        `json:"name" bson:"name"`
	Description   string        `json:"description,omitempty" bson:"description,omitempty"`
	Price         int64         `json:"price" bson:"price"`
	OriginalPrice int64         `json:"original_price,omitempty" bson:"original_price,omitempty"`
	ImageURL      string        `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Category      string        `json:"category,omitempty" bson:"category,omitempty"`
	SellerID      string        `json:"seller_id" bson:"seller_id"`
	SellerName    string        `json:"seller_name,omitempty" bson:"seller_name,omitempty"`
	Status        ProductStatus `json:"status" bson:"status"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}

// CartItem is one line of a user's cart. Quantity is always >= 1; adding an
// item already present increments instead of duplicating the line.
type CartItem struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	UserID    string    `json:"user_id" bson:"user_id"`
	ProductID string    `json:"product_id" bson:"product_id"`
	Quantity  int64     `json:"quantity" bson:"quantity"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// OrderItem snapshots a purchased line at the price paid.
type OrderItem struct {
	ProductID string `json:"product_id" bson:"product_id"`
	Name      string `json:"name" bson:"name"`
	Price     int64  `json:"price" bson:"price"`
	Quantity  int64  `json:"quantity" bson:"quantity"`
}

// Order records a completed checkout. Written in the same transaction as the
// balance deduction so history and ledger can never disagree.
type Order struct {
	ID        string      `json:"id" bson:"_id,omitempty"`
	UserID    string      `json:"user_id" bson:"user_id"`
	Items     []OrderItem `json:"items" bson:"items"`
	Total     int64       `json:"total" bson:"total"`
	Status    string      `json:"status" bson:"status"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
}

// GameType identifies one of the earn games.
type GameType string

const (
	GameLuckyWheel GameType = "lucky_wheel"
	GameMining     GameType = "mining"
	GameMysteryBox GameType = "mystery_box"
)

// GameLog records a single play for the earn history feed.
type GameLog struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	UserID    string    `json:"user_id" bson:"user_id"`
	GameType  GameType  `json:"game_type" bson:"game_type"`
	Bet       int64     `json:"bet" bson:"bet"`
	Reward    int64     `json:"reward" bson:"reward"`
	Result    string    `json:"result" bson:"result"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

var ErrInvalidProduct = errors.New("invalid product")
