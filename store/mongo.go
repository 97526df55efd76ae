package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

// Collection names inside the configured database.
const (
	ProductsCollection  = "products"
	CartsCollection     = "carts"
	WishlistsCollection = "wishlists"
	OrdersCollection    = "orders"
	ReviewsCollection   = "reviews"
	UsersCollection     = "users"
)

const defaultOpTimeout = 5 * time.Second

// Mongo implements Store on a MongoDB database.
type Mongo struct {
	Products  *mongo.Collection
	Carts     *mongo.Collection
	Wishlists *mongo.Collection
	Orders    *mongo.Collection
	Reviews   *mongo.Collection
	Users     *mongo.Collection

	timeout time.Duration
}

var _ Store = (*Mongo)(nil)

// NewMongo binds the repositories to the named database.
func NewMongo(client *mongo.Client, database string) *Mongo {
	db := client.Database(database)
	return &Mongo{
		Products:  db.Collection(ProductsCollection),
		Carts:     db.Collection(CartsCollection),
		Wishlists: db.Collection(WishlistsCollection),
		Orders:    db.Collection(OrdersCollection),
		Reviews:   db.Collection(ReviewsCollection),
		Users:     db.Collection(UsersCollection),
		timeout:   defaultOpTimeout,
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
// The (user_id, product_id) unique indexes back the one-line-per-product rule.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	lineIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_product_unique"),
		},
	}
	specs := []struct {
		coll    *mongo.Collection
		indexes []mongo.IndexModel
	}{
		{m.Carts, lineIndexes},
		{m.Wishlists, lineIndexes},
		{m.Users, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		}}},
		{m.Orders, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		}},
		{m.Reviews, []mongo.IndexModel{
			{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}}},
		}},
		{m.Products, []mongo.IndexModel{
			{Keys: bson.D{{Key: "category", Value: 1}}},
		}},
	}
	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", s.coll.Name(), err)
		}
	}
	return nil
}

func (m *Mongo) lines(kind models.LineKind) *mongo.Collection {
	if kind == models.KindWishlist {
		return m.Wishlists
	}
	return m.Carts
}

func (m *Mongo) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
