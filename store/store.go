// Package store defines the persistence ports used by the services and their
// MongoDB implementation. Each method maps to a single query shape.
package store

import (
	"context"
	"errors"
	"time"

	"storefront/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrInsufficientStock is returned by DecrementStock when the product
	// holds less than the requested quantity.
	ErrInsufficientStock = errors.New("store: insufficient stock")
)

// ProductUpdate lists the fields an admin may change. Nil fields are left as is.
type ProductUpdate struct {
	Name          *string
	Description   *string
	Price         *float64
	ImageURL      *string
	Category      *string
	StockQuantity *int
	Featured      *bool
}

// ProductStore is the catalog source of truth.
type ProductStore interface {
	InsertProduct(ctx context.Context, p *models.Product) error
	FindProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	FindProducts(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, u ProductUpdate, now time.Time) (models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	CountProducts(ctx context.Context) (int64, error)
}

// LineStore persists cart lines and wishlist entries. Every method is scoped
// by kind; (kind, user, product) is unique.
type LineStore interface {
	// UpsertLine creates the line for (user, product) or adds delta to it in
	// one atomic operation, capping the quantity at limit. Wishlist entries
	// ignore delta and limit. created reports whether a new line was inserted.
	UpsertLine(ctx context.Context, kind models.LineKind, userID, productID primitive.ObjectID, delta, limit int, now time.Time) (line models.LineItem, created bool, err error)
	FindLine(ctx context.Context, kind models.LineKind, userID, lineID primitive.ObjectID) (models.LineItem, error)
	FindLineByProduct(ctx context.Context, kind models.LineKind, userID, productID primitive.ObjectID) (models.LineItem, error)
	ListLines(ctx context.Context, kind models.LineKind, userID primitive.ObjectID) ([]models.LineItem, error)
	SetLineQuantity(ctx context.Context, kind models.LineKind, userID, lineID primitive.ObjectID, qty int, now time.Time) (models.LineItem, error)
	DeleteLine(ctx context.Context, kind models.LineKind, userID, lineID primitive.ObjectID) error
	DeleteLineByProduct(ctx context.Context, kind models.LineKind, userID, productID primitive.ObjectID) (bool, error)
	DeleteLines(ctx context.Context, kind models.LineKind, lineIDs []primitive.ObjectID) error
	ClearLines(ctx context.Context, kind models.LineKind, userID primitive.ObjectID) error
}

// OrderStore persists order snapshots.
type OrderStore interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	FindOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	// SetOrderStatus moves the order from `from` to `to`. It returns
	// ErrNotFound when no order with that id is in status `from`.
	SetOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, now time.Time) (models.Order, error)
	CountOrders(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (float64, error)
}

// ReviewFilter narrows ListReviews. Zero values match everything.
type ReviewFilter struct {
	ProductID primitive.ObjectID
	MinRating int
}

// ReviewStore persists product reviews.
type ReviewStore interface {
	InsertReview(ctx context.Context, r *models.Review) error
	ListReviews(ctx context.Context, f ReviewFilter) ([]models.Review, error)
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
	ReviewSummary(ctx context.Context, productID primitive.ObjectID) (models.ReviewSummary, error)
	CountReviews(ctx context.Context) (int64, error)
}

// UserFilter narrows ListUsers. Empty fields match everything.
type UserFilter struct {
	Role   string
	Status string
}

// UserUpdate lists mutable user fields. Nil fields are left as is.
type UserUpdate struct {
	Name    *string
	Address *models.Address
	Role    *string
	Status  *string
}

// UserStore persists accounts. Email is unique.
type UserStore interface {
	InsertUser(ctx context.Context, u *models.User) error
	FindUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, u UserUpdate) (models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// Store bundles every repository.
type Store interface {
	ProductStore
	LineStore
	OrderStore
	ReviewStore
	UserStore
}
