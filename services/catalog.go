package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/store"
)

// Catalog serves product listings and admin product management.
type Catalog struct {
	products store.ProductStore
	now      func() time.Time
}

// NewCatalog returns the catalog service.
func NewCatalog(products store.ProductStore, now func() time.Time) *Catalog {
	return &Catalog{products: products, now: now}
}

// ProductInput is the body of an admin create request.
type ProductInput struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   string  `json:"description" validate:"max=5000"`
	Price         float64 `json:"price" validate:"gte=0"`
	ImageURL      string  `json:"imageUrl"`
	Category      string  `json:"category" validate:"required"`
	StockQuantity int     `json:"stockQuantity" validate:"gte=0"`
	Featured      bool    `json:"featured"`
}

// ProductPatch is the body of an admin update request. Absent fields are
// left unchanged.
type ProductPatch struct {
	Name          *string  `json:"name" validate:"omitnil,min=1,max=200"`
	Description   *string  `json:"description" validate:"omitnil,max=5000"`
	Price         *float64 `json:"price" validate:"omitnil,gte=0"`
	ImageURL      *string  `json:"imageUrl"`
	Category      *string  `json:"category" validate:"omitnil,min=1"`
	StockQuantity *int     `json:"stockQuantity" validate:"omitnil,gte=0"`
	Featured      *bool    `json:"featured"`
}

// List returns the products matching q.
func (c *Catalog) List(ctx context.Context, q models.ProductQuery) ([]models.Product, error) {
	if !models.ValidSort(q.Sort) {
		return nil, invalidf("sort must be one of [%s %s %s %s]",
			models.SortNewest, models.SortPriceLow, models.SortPriceHigh, models.SortPopular)
	}
	products, err := c.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return models.FilterProducts(products, q), nil
}

// Get returns one product.
func (c *Catalog) Get(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	product, err := c.products.FindProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Product{}, notFoundf("product %s not found", id.Hex())
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("load product: %w", err)
	}
	return product, nil
}

// Create adds a product to the catalog.
func (c *Catalog) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateInput(in); err != nil {
		return models.Product{}, err
	}
	if in.ImageURL == "" {
		in.ImageURL = models.DefaultImageURL
	}

	now := c.now()
	product := models.Product{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		ImageURL:      in.ImageURL,
		Category:      in.Category,
		StockQuantity: in.StockQuantity,
		Featured:      in.Featured,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.products.InsertProduct(ctx, &product); err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return product, nil
}

// Update applies a partial update to a product.
func (c *Catalog) Update(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (models.Product, error) {
	if err := validateInput(patch); err != nil {
		return models.Product{}, err
	}
	product, err := c.products.UpdateProduct(ctx, id, store.ProductUpdate{
		Name:          patch.Name,
		Description:   patch.Description,
		Price:         patch.Price,
		ImageURL:      patch.ImageURL,
		Category:      patch.Category,
		StockQuantity: patch.StockQuantity,
		Featured:      patch.Featured,
	}, c.now())
	if errors.Is(err, store.ErrNotFound) {
		return models.Product{}, notFoundf("product %s not found", id.Hex())
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// Delete removes a product. Cart and wishlist lines that reference it are
// pruned the next time they are read.
func (c *Catalog) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := c.products.DeleteProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return notFoundf("product %s not found", id.Hex())
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
