package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

// Views joins the user's lines with live product data. Lines whose product
// no longer exists are left out of the result and deleted.
func (s *LineItems) Views(ctx context.Context, kind models.LineKind, userID primitive.ObjectID) ([]models.LineView, error) {
	lines, err := s.lines.ListLines(ctx, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s lines: %w", kind, err)
	}
	if len(lines) == 0 {
		return []models.LineView{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	views := make([]models.LineView, 0, len(lines))
	var orphans []primitive.ObjectID
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			orphans = append(orphans, line.ID)
			continue
		}
		views = append(views, models.LineView{LineItem: line, Product: product.Summary()})
	}

	if len(orphans) > 0 {
		if err := s.lines.DeleteLines(ctx, kind, orphans); err != nil {
			slog.WarnContext(ctx, "failed to prune orphaned lines", "kind", kind, "user_id", userID.Hex(), "error", err)
		} else {
			slog.InfoContext(ctx, "pruned orphaned lines", "kind", kind, "user_id", userID.Hex(), "count", len(orphans))
		}
	}
	return views, nil
}

// Cart returns the joined cart with item count and subtotal at current prices.
func (s *LineItems) Cart(ctx context.Context, userID primitive.ObjectID) (models.CartView, error) {
	views, err := s.Views(ctx, models.KindCart, userID)
	if err != nil {
		return models.CartView{}, err
	}
	subtotal := decimal.Zero
	count := 0
	for _, v := range views {
		subtotal = subtotal.Add(decimal.NewFromFloat(v.Product.Price).Mul(decimal.NewFromInt(int64(v.Quantity))))
		count += v.Quantity
	}
	return models.CartView{
		Items:     views,
		ItemCount: count,
		Subtotal:  subtotal.Round(2).InexactFloat64(),
	}, nil
}

// Wishlist returns the user's wishlist joined with live products.
func (s *LineItems) Wishlist(ctx context.Context, userID primitive.ObjectID) ([]models.LineView, error) {
	return s.Views(ctx, models.KindWishlist, userID)
}
