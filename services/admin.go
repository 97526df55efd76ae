package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"storefront/store"
)

// Stats is the admin dashboard summary.
type Stats struct {
	Products int64   `json:"products"`
	Users    int64   `json:"users"`
	Orders   int64   `json:"orders"`
	Reviews  int64   `json:"reviews"`
	Revenue  float64 `json:"revenue"`
}

// Admin serves dashboard aggregates.
type Admin struct {
	store store.Store
}

// NewAdmin returns the admin service.
func NewAdmin(s store.Store) *Admin {
	return &Admin{store: s}
}

// Stats gathers catalog and sales counts concurrently. Revenue excludes
// cancelled orders.
func (a *Admin) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Products, err = a.store.CountProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Users, err = a.store.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Orders, err = a.store.CountOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Reviews, err = a.store.CountReviews(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Revenue, err = a.store.Revenue(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("gather stats: %w", err)
	}
	return stats, nil
}
