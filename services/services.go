// Package services holds the storefront business rules. Handlers call into
// these types; persistence goes through the store interfaces.
package services

import (
	"time"

	"storefront/events"
	"storefront/metrics"
	"storefront/store"
	"storefront/utils"
)

// Deps wires the services together.
type Deps struct {
	Store     store.Store
	JWT       *utils.JWTManager
	Email     *utils.EmailService
	Publisher events.Publisher
	Metrics   *metrics.Metrics

	// DecrementStockOnOrder subtracts ordered quantities from product stock
	// at checkout. Off by default.
	DecrementStockOnOrder bool

	Now func() time.Time
	// Background runs fire-and-forget work such as email delivery.
	// Defaults to a new goroutine.
	Background func(func())
}

// Services is the full set used by the HTTP layer.
type Services struct {
	Lines    *LineItems
	Catalog  *Catalog
	Orders   *Orders
	Reviews  *Reviews
	Accounts *Accounts
	Admin    *Admin
}

// New builds every service from d, filling defaults for optional fields.
func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Background == nil {
		d.Background = func(f func()) { go f() }
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	if d.Email == nil {
		d.Email = utils.NewEmailService(nil)
	}

	lines := NewLineItems(d.Store, d.Store, d.Metrics, d.Now)
	return &Services{
		Lines:    lines,
		Catalog:  NewCatalog(d.Store, d.Now),
		Orders:   newOrders(d, lines),
		Reviews:  NewReviews(d.Store, d.Store, d.Store, d.Now),
		Accounts: newAccounts(d),
		Admin:    NewAdmin(d.Store),
	}
}
