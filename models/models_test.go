package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampQuantity(t *testing.T) {
	tests := []struct {
		name                  string
		current, delta, stock int
		want                  int
	}{
		{"fresh line below stock", 0, 7, 10, 7},
		{"accumulates", 7, 2, 10, 9},
		{"caps at stock", 7, 5, 10, 10},
		{"stock dropped below existing", 8, 1, 3, 3},
		{"no stock", 0, 4, 0, 0},
		{"max delta on existing line", 3, math.MaxInt, 5, 5},
		{"max delta on fresh line", 0, math.MaxInt, 5, 5},
		{"max delta with max stock", 1, math.MaxInt, math.MaxInt, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampQuantity(tt.current, tt.delta, tt.stock))
		})
	}
}

func TestOrderStatus_CanTransition(t *testing.T) {
	assert.True(t, StatusPending.CanTransition(StatusProcessing))
	assert.True(t, StatusPending.CanTransition(StatusCancelled))
	assert.True(t, StatusProcessing.CanTransition(StatusShipped))
	assert.True(t, StatusShipped.CanTransition(StatusDelivered))

	assert.False(t, StatusPending.CanTransition(StatusDelivered))
	assert.False(t, StatusShipped.CanTransition(StatusCancelled))
	assert.False(t, StatusDelivered.CanTransition(StatusPending))
	assert.False(t, StatusCancelled.CanTransition(StatusProcessing))

	assert.False(t, OrderStatus("lost").Valid())
}

func TestFilterProducts(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	products := []Product{
		{Name: "Modern Sofa", Description: "Grey fabric", Category: "living-room", Price: 899, CreatedAt: base},
		{Name: "Oak Bed", Description: "Solid wood frame", Category: "bedroom", Price: 1299, Featured: true, CreatedAt: base.Add(time.Hour)},
		{Name: "Kitchen Stool", Description: "Bar height, oak seat", Category: "kitchen", Price: 89, CreatedAt: base.Add(2 * time.Hour)},
		{Name: "Floor Lamp", Description: "Brass", Category: "living-room", Price: 149, Featured: true, CreatedAt: base.Add(3 * time.Hour)},
	}
	names := func(ps []Product) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Floor Lamp", "Kitchen Stool", "Oak Bed", "Modern Sofa"}, names(FilterProducts(products, ProductQuery{})))
	assert.Equal(t, []string{"Floor Lamp", "Modern Sofa"}, names(FilterProducts(products, ProductQuery{Category: "living-room"})))
	assert.Len(t, FilterProducts(products, ProductQuery{Category: CategoryAll}), 4)
	assert.Equal(t, []string{"Kitchen Stool", "Oak Bed"}, names(FilterProducts(products, ProductQuery{Search: "OAK"})))
	assert.Equal(t, []string{"Floor Lamp", "Oak Bed"}, names(FilterProducts(products, ProductQuery{Featured: true})))
	assert.Equal(t, []string{"Kitchen Stool", "Floor Lamp", "Modern Sofa", "Oak Bed"}, names(FilterProducts(products, ProductQuery{Sort: SortPriceLow})))
	assert.Equal(t, []string{"Oak Bed", "Modern Sofa", "Floor Lamp", "Kitchen Stool"}, names(FilterProducts(products, ProductQuery{Sort: SortPriceHigh})))
	assert.Equal(t, []string{"Floor Lamp", "Oak Bed", "Kitchen Stool", "Modern Sofa"}, names(FilterProducts(products, ProductQuery{Sort: SortPopular})))

	assert.Equal(t, "Modern Sofa", products[0].Name, "input is not reordered")
}
