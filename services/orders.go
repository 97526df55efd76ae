package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/events"
	"storefront/metrics"
	"storefront/models"
	"storefront/store"
	"storefront/utils"
)

// Orders turns carts into order snapshots and drives the order lifecycle.
type Orders struct {
	lines     *LineItems
	products  store.ProductStore
	orders    store.OrderStore
	users     store.UserStore
	publisher events.Publisher
	email     *utils.EmailService
	metrics   *metrics.Metrics

	decrementStock bool
	now            func() time.Time
	background     func(func())
}

func newOrders(d Deps, lines *LineItems) *Orders {
	return &Orders{
		lines:          lines,
		products:       d.Store,
		orders:         d.Store,
		users:          d.Store,
		publisher:      d.Publisher,
		email:          d.Email,
		metrics:        d.Metrics,
		decrementStock: d.DecrementStockOnOrder,
		now:            d.Now,
		background:     d.Background,
	}
}

// CheckoutRequest is the body of POST /orders. The user's saved address is
// used when ShippingAddress is empty.
type CheckoutRequest struct {
	ShippingAddress models.Address `json:"shippingAddress"`
}

// Checkout snapshots the caller's cart into a pending order and empties the
// cart. Order creation and cart clearing are separate writes.
func (o *Orders) Checkout(ctx context.Context, userID primitive.ObjectID, req CheckoutRequest) (models.Order, error) {
	user, err := o.users.FindUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Order{}, fmt.Errorf("%w: account no longer exists", ErrUnauthenticated)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("load user: %w", err)
	}

	cart, err := o.lines.Cart(ctx, userID)
	if err != nil {
		return models.Order{}, err
	}
	if len(cart.Items) == 0 {
		return models.Order{}, invalidf("cart is empty")
	}

	address := req.ShippingAddress
	if address.IsZero() {
		address = user.Address
	}
	if address.Street == "" || address.City == "" {
		return models.Order{}, invalidf("shipping address with street and city is required")
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	total := decimal.Zero
	for _, line := range cart.Items {
		if line.Quantity > line.Product.StockQuantity {
			return models.Order{}, conflictf("only %d of %q left in stock", line.Product.StockQuantity, line.Product.Name)
		}
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
		})
		total = total.Add(decimal.NewFromFloat(line.Product.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if o.decrementStock {
		if err := o.reserveStock(ctx, items); err != nil {
			return models.Order{}, err
		}
	}

	now := o.now()
	order := models.Order{
		UserID:          userID,
		Items:           items,
		Total:           total.Round(2).InexactFloat64(),
		ShippingAddress: address,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := o.orders.InsertOrder(ctx, &order); err != nil {
		if o.decrementStock {
			o.releaseStock(ctx, items)
		}
		return models.Order{}, fmt.Errorf("insert order: %w", err)
	}

	if err := o.lines.lines.ClearLines(ctx, models.KindCart, userID); err != nil {
		slog.WarnContext(ctx, "order placed but cart was not cleared", "order_id", order.ID.Hex(), "user_id", userID.Hex(), "error", err)
	}
	o.metrics.OrdersPlaced.Inc()
	slog.InfoContext(ctx, "order placed", "order_id", order.ID.Hex(), "user_id", userID.Hex(), "items", len(items), "total", order.Total)

	o.notify(ctx, events.OrderPlaced, user, order, o.email.SendOrderConfirmationEmail)
	return order, nil
}

// reserveStock decrements stock for every item, undoing earlier decrements
// when one fails.
func (o *Orders) reserveStock(ctx context.Context, items []models.OrderItem) error {
	for i, item := range items {
		err := o.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err == nil {
			continue
		}
		o.releaseStock(ctx, items[:i])
		switch {
		case errors.Is(err, store.ErrInsufficientStock):
			return conflictf("not enough stock for %q", item.Name)
		case errors.Is(err, store.ErrNotFound):
			return conflictf("product %q is no longer available", item.Name)
		}
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

func (o *Orders) releaseStock(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := o.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			slog.ErrorContext(ctx, "failed to release reserved stock", "product_id", item.ProductID.Hex(), "quantity", item.Quantity, "error", err)
		}
	}
}

// notify publishes the order event and emails the customer in the background.
func (o *Orders) notify(ctx context.Context, eventType string, user models.User, order models.Order,
	send func(context.Context, models.User, models.Order) error) {
	if err := o.publisher.Publish(ctx, events.NewOrderMessage(eventType, order, o.now())); err != nil {
		slog.WarnContext(ctx, "failed to publish order event", "type", eventType, "order_id", order.ID.Hex(), "error", err)
	}
	bg := context.WithoutCancel(ctx)
	o.background(func() {
		if err := send(bg, user, order); err != nil {
			slog.WarnContext(bg, "failed to send order email", "type", eventType, "order_id", order.ID.Hex(), "error", err)
		}
	})
}

// ListForUser returns the caller's orders, newest first.
func (o *Orders) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := o.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get returns an order visible to the caller. Orders owned by someone else
// are reported as not found unless the caller is an admin.
func (o *Orders) Get(ctx context.Context, userID primitive.ObjectID, isAdmin bool, orderID primitive.ObjectID) (models.Order, error) {
	order, err := o.orders.FindOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !isAdmin && order.UserID != userID) {
		return models.Order{}, notFoundf("order %s not found", orderID.Hex())
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

// ListAll returns every order, optionally filtered by status.
func (o *Orders) ListAll(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, invalidf("unknown order status %q", status)
	}
	orders, err := o.orders.ListOrders(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order along its lifecycle. Setting the current
// status again is a no-op.
func (o *Orders) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, next models.OrderStatus) (models.Order, error) {
	if !next.Valid() {
		return models.Order{}, invalidf("unknown order status %q", next)
	}
	order, err := o.orders.FindOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Order{}, notFoundf("order %s not found", orderID.Hex())
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("load order: %w", err)
	}
	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransition(next) {
		return models.Order{}, conflictf("order cannot move from %s to %s", order.Status, next)
	}

	updated, err := o.orders.SetOrderStatus(ctx, orderID, order.Status, next, o.now())
	if errors.Is(err, store.ErrNotFound) {
		return models.Order{}, conflictf("order %s changed concurrently, retry the request", orderID.Hex())
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("update order status: %w", err)
	}
	slog.InfoContext(ctx, "order status changed", "order_id", orderID.Hex(), "from", order.Status, "to", next)

	user, err := o.users.FindUser(ctx, updated.UserID)
	if err != nil {
		slog.WarnContext(ctx, "order owner not found, skipping notification", "order_id", orderID.Hex(), "error", err)
		if perr := o.publisher.Publish(ctx, events.NewOrderMessage(events.OrderStatusChanged, updated, o.now())); perr != nil {
			slog.WarnContext(ctx, "failed to publish order event", "order_id", orderID.Hex(), "error", perr)
		}
		return updated, nil
	}
	o.notify(ctx, events.OrderStatusChanged, user, updated, o.email.SendOrderStatusEmail)
	return updated, nil
}
