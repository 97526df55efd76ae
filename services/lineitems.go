package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/metrics"
	"storefront/models"
	"storefront/store"
)

// LineItems owns cart lines and wishlist entries: the stock-aware upsert,
// quantity edits, removal, and the joined read views.
type LineItems struct {
	products store.ProductStore
	lines    store.LineStore
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewLineItems returns the line-item service.
func NewLineItems(products store.ProductStore, lines store.LineStore, m *metrics.Metrics, now func() time.Time) *LineItems {
	return &LineItems{products: products, lines: lines, metrics: m, now: now}
}

// Add ensures exactly one line exists for (userID, productID). For the cart
// the stored quantity becomes min(existing+quantity, stock); requests above
// stock are clamped silently. Wishlist entries ignore quantity.
// created reports whether a new line was inserted.
func (s *LineItems) Add(ctx context.Context, kind models.LineKind, userID, productID primitive.ObjectID, quantity int) (models.LineItem, bool, error) {
	if !kind.Valid() {
		return models.LineItem{}, false, invalidf("unknown line kind %q", kind)
	}
	if kind == models.KindCart && quantity <= 0 {
		return models.LineItem{}, false, invalidf("quantity must be a positive integer")
	}

	product, err := s.products.FindProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return models.LineItem{}, false, notFoundf("product %s not found", productID.Hex())
	}
	if err != nil {
		return models.LineItem{}, false, fmt.Errorf("load product: %w", err)
	}

	limit := 0
	if kind == models.KindCart {
		if product.StockQuantity <= 0 {
			return models.LineItem{}, false, conflictf("product %q is out of stock", product.Name)
		}
		limit = product.StockQuantity
		if quantity > limit {
			quantity = limit
		}
	}

	line, created, err := s.lines.UpsertLine(ctx, kind, userID, productID, quantity, limit, s.now())
	if errors.Is(err, store.ErrDuplicate) {
		s.metrics.LineUpserts.WithLabelValues(string(kind), metrics.OutcomeConflict).Inc()
		return models.LineItem{}, false, conflictf("%s line for product %s was modified concurrently, retry the request", kind, productID.Hex())
	}
	if err != nil {
		return models.LineItem{}, false, fmt.Errorf("upsert %s line: %w", kind, err)
	}

	outcome := metrics.OutcomeUpdated
	if created {
		outcome = metrics.OutcomeCreated
	}
	s.metrics.LineUpserts.WithLabelValues(string(kind), outcome).Inc()
	return line, created, nil
}

// SetQuantity replaces the quantity of one of the user's cart lines, clamped
// to the product's current stock.
func (s *LineItems) SetQuantity(ctx context.Context, userID, lineID primitive.ObjectID, quantity int) (models.LineItem, error) {
	if quantity <= 0 {
		return models.LineItem{}, invalidf("quantity must be a positive integer")
	}

	line, err := s.lines.FindLine(ctx, models.KindCart, userID, lineID)
	if errors.Is(err, store.ErrNotFound) {
		return models.LineItem{}, notFoundf("cart item %s not found", lineID.Hex())
	}
	if err != nil {
		return models.LineItem{}, fmt.Errorf("load cart line: %w", err)
	}

	product, err := s.products.FindProduct(ctx, line.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		return models.LineItem{}, notFoundf("product %s is no longer available", line.ProductID.Hex())
	}
	if err != nil {
		return models.LineItem{}, fmt.Errorf("load product: %w", err)
	}
	if product.StockQuantity <= 0 {
		return models.LineItem{}, conflictf("product %q is out of stock", product.Name)
	}

	qty := models.ClampQuantity(0, quantity, product.StockQuantity)
	line, err = s.lines.SetLineQuantity(ctx, models.KindCart, userID, lineID, qty, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return models.LineItem{}, notFoundf("cart item %s not found", lineID.Hex())
	}
	if err != nil {
		return models.LineItem{}, fmt.Errorf("update cart line: %w", err)
	}
	return line, nil
}

// Remove deletes one of the user's lines by id. A second call for the same
// id reports ErrNotFound.
func (s *LineItems) Remove(ctx context.Context, kind models.LineKind, userID, lineID primitive.ObjectID) error {
	err := s.lines.DeleteLine(ctx, kind, userID, lineID)
	if errors.Is(err, store.ErrNotFound) {
		return notFoundf("%s item %s not found", kind, lineID.Hex())
	}
	if err != nil {
		return fmt.Errorf("delete %s line: %w", kind, err)
	}
	return nil
}

// Ensure makes the product present in the user's wishlist.
func (s *LineItems) Ensure(ctx context.Context, userID, productID primitive.ObjectID) (models.LineItem, bool, error) {
	return s.Add(ctx, models.KindWishlist, userID, productID, 0)
}

// RemoveProduct makes the product absent from the user's cart or wishlist.
// It reports whether a line was removed and never fails for absence.
func (s *LineItems) RemoveProduct(ctx context.Context, kind models.LineKind, userID, productID primitive.ObjectID) (bool, error) {
	removed, err := s.lines.DeleteLineByProduct(ctx, kind, userID, productID)
	if err != nil {
		return false, fmt.Errorf("delete %s line: %w", kind, err)
	}
	return removed, nil
}

// Contains reports whether the user has a line for the product.
func (s *LineItems) Contains(ctx context.Context, kind models.LineKind, userID, productID primitive.ObjectID) (bool, error) {
	_, err := s.lines.FindLineByProduct(ctx, kind, userID, productID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s line: %w", kind, err)
	}
	return true, nil
}
