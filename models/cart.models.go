package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LineKind selects the collection a line item lives in.
type LineKind string

const (
	KindCart     LineKind = "cart"
	KindWishlist LineKind = "wishlist"
)

// Valid reports whether k is a known line kind.
func (k LineKind) Valid() bool {
	return k == KindCart || k == KindWishlist
}

// LineItem associates one user with one product. Cart lines carry a positive
// Quantity; wishlist entries only record presence and AddedAt.
// At most one LineItem exists per (kind, UserID, ProductID).
type LineItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Quantity  int                `bson:"quantity,omitempty" json:"quantity,omitempty"`
	AddedAt   time.Time          `bson:"added_at" json:"addedAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// LineView is a line item joined with the current state of its product.
type LineView struct {
	LineItem `bson:",inline"`
	Product  ProductSummary `json:"product"`
}

// CartView is the joined cart returned to the owner.
type CartView struct {
	Items     []LineView `json:"items"`
	ItemCount int        `json:"itemCount"`
	Subtotal  float64    `json:"subtotal"`
}

// ClampQuantity returns the quantity a cart line holds after adding delta to
// current, capped at stock. Requests above stock are clamped, not rejected.
// The comparison is done before adding so a huge delta cannot overflow.
func ClampQuantity(current, delta, stock int) int {
	if stock <= 0 {
		return 0
	}
	if current >= stock || delta >= stock-current {
		return stock
	}
	if q := current + delta; q > 0 {
		return q
	}
	return 0
}
