package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/events"
	"storefront/models"
	"storefront/store"
)

func TestOrders_CheckoutSnapshotsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "buyer@example.com", models.RoleUser)
	sofa := f.product(t, "Sofa", 100.10, 5)
	lamp := f.product(t, "Lamp", 0.45, 5)

	_, _, err := f.svc.Lines.Add(ctx, models.KindCart, user.ID, sofa.ID, 2)
	require.NoError(t, err)
	_, _, err = f.svc.Lines.Add(ctx, models.KindCart, user.ID, lamp.ID, 3)
	require.NoError(t, err)

	order, err := f.svc.Orders.Checkout(ctx, user.ID, CheckoutRequest{})
	require.NoError(t, err)
	assert.False(t, order.ID.IsZero())
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 201.55, order.Total)
	assert.Equal(t, user.Address, order.ShippingAddress)
	require.Len(t, order.Items, 2)

	price := 1.0
	_, err = f.store.UpdateProduct(ctx, sofa.ID, store.ProductUpdate{Price: &price}, testNow)
	require.NoError(t, err)
	stored, err := f.svc.Orders.Get(ctx, user.ID, false, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 201.55, stored.Total, "order does not follow product changes")

	cart, err := f.svc.Lines.Cart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	p, err := f.store.FindProduct(ctx, sofa.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.StockQuantity, "stock untouched by default")

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersPlaced))
	require.Len(t, f.publisher.msgs, 1)
	assert.Equal(t, events.OrderPlaced, f.publisher.msgs[0].Type)
	assert.Equal(t, []string{"Order Confirmation"}, f.mail.subjects())
}

func TestOrders_CheckoutRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "empty@example.com", models.RoleUser)

	_, err := f.svc.Orders.Checkout(ctx, user.ID, CheckoutRequest{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.Orders.Checkout(ctx, newID(), CheckoutRequest{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestOrders_CheckoutDecrementsStockWhenEnabled(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.DecrementStockOnOrder = true })
	ctx := context.Background()
	user := f.user(t, "stock@example.com", models.RoleUser)
	chair := f.product(t, "Chair", 50, 4)

	_, _, err := f.svc.Lines.Add(ctx, models.KindCart, user.ID, chair.ID, 3)
	require.NoError(t, err)
	_, err = f.svc.Orders.Checkout(ctx, user.ID, CheckoutRequest{})
	require.NoError(t, err)

	p, err := f.store.FindProduct(ctx, chair.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StockQuantity)
}

func TestOrders_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "status@example.com", models.RoleUser)
	desk := f.product(t, "Desk", 200, 3)
	_, _, err := f.svc.Lines.Add(ctx, models.KindCart, user.ID, desk.ID, 1)
	require.NoError(t, err)
	order, err := f.svc.Orders.Checkout(ctx, user.ID, CheckoutRequest{})
	require.NoError(t, err)

	updated, err := f.svc.Orders.UpdateStatus(ctx, order.ID, models.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, updated.Status)

	same, err := f.svc.Orders.UpdateStatus(ctx, order.ID, models.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, same.Status)

	_, err = f.svc.Orders.UpdateStatus(ctx, order.ID, models.StatusDelivered)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.Orders.UpdateStatus(ctx, order.ID, "lost")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.Orders.UpdateStatus(ctx, newID(), models.StatusShipped)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"Order Confirmation", "Order Status Updated"}, f.mail.subjects())
	require.Len(t, f.publisher.msgs, 2)
	assert.Equal(t, events.OrderStatusChanged, f.publisher.msgs[1].Type)

	pending, err := f.svc.Orders.ListAll(ctx, models.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
	processing, err := f.svc.Orders.ListAll(ctx, models.StatusProcessing)
	require.NoError(t, err)
	assert.Len(t, processing, 1)
}

func TestOrders_GetHidesOtherUsersOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com", models.RoleUser)
	other := f.user(t, "other@example.com", models.RoleUser)
	item := f.product(t, "Vase", 30, 2)
	_, _, err := f.svc.Lines.Add(ctx, models.KindCart, owner.ID, item.ID, 1)
	require.NoError(t, err)
	order, err := f.svc.Orders.Checkout(ctx, owner.ID, CheckoutRequest{})
	require.NoError(t, err)

	_, err = f.svc.Orders.Get(ctx, other.ID, false, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Orders.Get(ctx, other.ID, true, order.ID)
	assert.NoError(t, err)

	mine, err := f.svc.Orders.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := f.svc.Orders.ListForUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
