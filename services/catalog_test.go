package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
)

func TestCatalog_CreateDefaultsAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Catalog.Create(ctx, ProductInput{Name: " Armchair ", Category: "living-room", Price: 199.5, StockQuantity: 4})
	require.NoError(t, err)
	assert.False(t, p.ID.IsZero())
	assert.Equal(t, "Armchair", p.Name)
	assert.Equal(t, models.DefaultImageURL, p.ImageURL)
	assert.Equal(t, testNow, p.CreatedAt)

	_, err = f.svc.Catalog.Create(ctx, ProductInput{Category: "bedroom"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "name is required")

	_, err = f.svc.Catalog.Create(ctx, ProductInput{Name: "Bad", Category: "bedroom", StockQuantity: -1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "stockQuantity")
}

func TestCatalog_UpdateIsPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Dresser", 420, 2)

	stock := 9
	updated, err := f.svc.Catalog.Update(ctx, p.ID, ProductPatch{StockQuantity: &stock})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.StockQuantity)
	assert.Equal(t, "Dresser", updated.Name)
	assert.Equal(t, 420.0, updated.Price)

	empty := ""
	_, err = f.svc.Catalog.Update(ctx, p.ID, ProductPatch{Name: &empty})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	negative := -5.0
	_, err = f.svc.Catalog.Update(ctx, p.ID, ProductPatch{Price: &negative})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.Catalog.Update(ctx, newID(), ProductPatch{StockQuantity: &stock})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "Sofa", 899, 1)
	lamp := f.product(t, "Lamp", 49, 1)

	products, err := f.svc.Catalog.List(ctx, models.ProductQuery{Sort: models.SortPriceLow})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Lamp", products[0].Name)

	_, err = f.svc.Catalog.List(ctx, models.ProductQuery{Sort: "random"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, f.svc.Catalog.Delete(ctx, lamp.ID))
	assert.ErrorIs(t, f.svc.Catalog.Delete(ctx, lamp.ID), ErrNotFound)
	_, err = f.svc.Catalog.Get(ctx, lamp.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
