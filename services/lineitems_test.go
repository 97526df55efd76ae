package services

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/metrics"
	"storefront/models"
)

func TestLineItems_AddClampsToStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := newID()
	sofa := f.product(t, "Sofa", 899.99, 10)

	line, created, err := f.svc.Lines.Add(ctx, models.KindCart, userID, sofa.ID, 7)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 7, line.Quantity)

	line, created, err = f.svc.Lines.Add(ctx, models.KindCart, userID, sofa.ID, 5)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 10, line.Quantity, "quantity is capped at stock")

	lines, err := f.store.ListLines(ctx, models.KindCart, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 10, lines[0].Quantity)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LineUpserts.WithLabelValues("cart", metrics.OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LineUpserts.WithLabelValues("cart", metrics.OutcomeUpdated)))
}

func TestLineItems_AddAboveStockOnFirstInsert(t *testing.T) {
	f := newFixture(t)
	lamp := f.product(t, "Lamp", 49.5, 3)

	line, created, err := f.svc.Lines.Add(context.Background(), models.KindCart, newID(), lamp.ID, 50)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 3, line.Quantity)
}

func TestLineItems_AddHugeQuantityToExistingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := newID()
	rug := f.product(t, "Rug", 75, 5)

	_, _, err := f.svc.Lines.Add(ctx, models.KindCart, userID, rug.ID, 3)
	require.NoError(t, err)

	line, created, err := f.svc.Lines.Add(ctx, models.KindCart, userID, rug.ID, math.MaxInt)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 5, line.Quantity)

	lines, err := f.store.ListLines(ctx, models.KindCart, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestLineItems_AddRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inStock := f.product(t, "Chair", 120, 4)
	soldOut := f.product(t, "Table", 300, 0)

	tests := []struct {
		name      string
		kind      models.LineKind
		productID func() models.Product
		quantity  int
		want      error
	}{
		{"zero quantity", models.KindCart, func() models.Product { return inStock }, 0, ErrInvalidArgument},
		{"negative quantity", models.KindCart, func() models.Product { return inStock }, -2, ErrInvalidArgument},
		{"unknown product", models.KindCart, func() models.Product { return models.Product{ID: newID()} }, 1, ErrNotFound},
		{"out of stock", models.KindCart, func() models.Product { return soldOut }, 1, ErrConflict},
		{"unknown kind", models.LineKind("basket"), func() models.Product { return inStock }, 1, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Lines.Add(ctx, tt.kind, newID(), tt.productID().ID, tt.quantity)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLineItems_WishlistIgnoresStockAndQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := newID()
	soldOut := f.product(t, "Rug", 75, 0)

	line, created, err := f.svc.Lines.Ensure(ctx, userID, soldOut.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Zero(t, line.Quantity)

	again, created, err := f.svc.Lines.Ensure(ctx, userID, soldOut.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, line.ID, again.ID)

	in, err := f.svc.Lines.Contains(ctx, models.KindWishlist, userID, soldOut.ID)
	require.NoError(t, err)
	assert.True(t, in)

	removed, err := f.svc.Lines.RemoveProduct(ctx, models.KindWishlist, userID, soldOut.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.svc.Lines.RemoveProduct(ctx, models.KindWishlist, userID, soldOut.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	in, err = f.svc.Lines.Contains(ctx, models.KindWishlist, userID, soldOut.ID)
	require.NoError(t, err)
	assert.False(t, in)
}

func TestLineItems_ConcurrentAddsKeepOneLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := newID()
	bed := f.product(t, "Bed", 1200, 10)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, c, err := f.svc.Lines.Add(ctx, models.KindCart, userID, bed.ID, 1)
			assert.NoError(t, err)
			if c {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	lines, err := f.store.ListLines(ctx, models.KindCart, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, workers, lines[0].Quantity)
}

func TestLineItems_SetQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := newID()
	desk := f.product(t, "Desk", 250, 6)
	line, _, err := f.svc.Lines.Add(ctx, models.KindCart, userID, desk.ID, 2)
	require.NoError(t, err)

	updated, err := f.svc.Lines.SetQuantity(ctx, userID, line.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	updated, err = f.svc.Lines.SetQuantity(ctx, userID, line.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Quantity)

	_, err = f.svc.Lines.SetQuantity(ctx, userID, line.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.Lines.SetQuantity(ctx, newID(), line.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound, "another user's line is not visible")

	zero := 0
	_, err = f.store.UpdateProduct(ctx, desk.ID, storeUpdateStock(zero), testNow)
	require.NoError(t, err)
	_, err = f.svc.Lines.SetQuantity(ctx, userID, line.ID, 1)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLineItems_RemoveTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := newID()
	shelf := f.product(t, "Shelf", 80, 5)
	line, _, err := f.svc.Lines.Add(ctx, models.KindCart, userID, shelf.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.Lines.Remove(ctx, models.KindCart, userID, line.ID))
	assert.ErrorIs(t, f.svc.Lines.Remove(ctx, models.KindCart, userID, line.ID), ErrNotFound)
}
