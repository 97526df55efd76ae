package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. StockQuantity is never negative.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	ImageURL      string             `bson:"image_url" json:"imageUrl"`
	Category      string             `bson:"category" json:"category"`
	StockQuantity int                `bson:"stock_quantity" json:"stockQuantity"`
	Featured      bool               `bson:"featured" json:"featured"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// DefaultImageURL is used when a product is created without an image.
const DefaultImageURL = "/placeholder.svg?height=400&width=400"

// ProductSummary is the live product data attached to cart and wishlist lines.
type ProductSummary struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ImageURL      string  `json:"imageUrl"`
	Category      string  `json:"category"`
	StockQuantity int     `json:"stockQuantity"`
}

// Summary returns the fields exposed on joined line views.
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		Name:          p.Name,
		Price:         p.Price,
		ImageURL:      p.ImageURL,
		Category:      p.Category,
		StockQuantity: p.StockQuantity,
	}
}
