package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/store"
)

func TestUpsertLine_OneLinePerUserAndProduct(t *testing.T) {
	ctx := context.Background()
	s := New()
	user, product := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now()

	first, created, err := s.UpsertLine(ctx, models.KindCart, user, product, 4, 6, now)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 4, first.Quantity)

	second, created, err := s.UpsertLine(ctx, models.KindCart, user, product, 4, 6, now)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 6, second.Quantity)

	_, created, err = s.UpsertLine(ctx, models.KindWishlist, user, product, 0, 0, now)
	require.NoError(t, err)
	assert.True(t, created, "cart and wishlist are separate")

	removed, err := s.DeleteLineByProduct(ctx, models.KindCart, user, product)
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = s.FindLine(ctx, models.KindCart, user, first.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	again, created, err := s.UpsertLine(ctx, models.KindCart, user, product, 1, 6, now)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, again.ID)
}

func TestDecrementStock(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := models.Product{Name: "Lamp", StockQuantity: 3}
	require.NoError(t, s.InsertProduct(ctx, &p))

	require.NoError(t, s.DecrementStock(ctx, p.ID, 2))
	assert.ErrorIs(t, s.DecrementStock(ctx, p.ID, 2), store.ErrInsufficientStock)
	assert.ErrorIs(t, s.DecrementStock(ctx, primitive.NewObjectID(), 1), store.ErrNotFound)
	require.NoError(t, s.IncrementStock(ctx, p.ID, 4))

	got, err := s.FindProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)
}

func TestInsertUser_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.InsertUser(ctx, &models.User{Email: "a@example.com"}))
	assert.ErrorIs(t, s.InsertUser(ctx, &models.User{Email: "A@example.com"}), store.ErrDuplicate)
}
