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

// Reviews manages product reviews.
type Reviews struct {
	reviews  store.ReviewStore
	products store.ProductStore
	users    store.UserStore
	now      func() time.Time
}

// NewReviews returns the review service.
func NewReviews(reviews store.ReviewStore, products store.ProductStore, users store.UserStore, now func() time.Time) *Reviews {
	return &Reviews{reviews: reviews, products: products, users: users, now: now}
}

// ReviewQuery filters a review listing. Featured keeps ratings of 4 and up.
type ReviewQuery struct {
	ProductID primitive.ObjectID
	Featured  bool
}

// ReviewInput is the body of POST /reviews.
type ReviewInput struct {
	ProductID string `json:"productId" validate:"required"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Title     string `json:"title" validate:"required,max=200"`
	Comment   string `json:"comment" validate:"required,max=5000"`
}

// List returns reviews newest first.
func (r *Reviews) List(ctx context.Context, q ReviewQuery) ([]models.Review, error) {
	f := store.ReviewFilter{ProductID: q.ProductID}
	if q.Featured {
		f.MinRating = models.FeaturedRating
	}
	reviews, err := r.reviews.ListReviews(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Create stores a review by userID. The reviewer's current name is copied
// onto the review.
func (r *Reviews) Create(ctx context.Context, userID primitive.ObjectID, in ReviewInput) (models.Review, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validateInput(in); err != nil {
		return models.Review{}, err
	}
	productID, err := ParseID(in.ProductID, "productId")
	if err != nil {
		return models.Review{}, err
	}

	if _, err := r.products.FindProduct(ctx, productID); errors.Is(err, store.ErrNotFound) {
		return models.Review{}, notFoundf("product %s not found", productID.Hex())
	} else if err != nil {
		return models.Review{}, fmt.Errorf("load product: %w", err)
	}

	user, err := r.users.FindUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Review{}, fmt.Errorf("%w: account no longer exists", ErrUnauthenticated)
	}
	if err != nil {
		return models.Review{}, fmt.Errorf("load user: %w", err)
	}

	review := models.Review{
		ProductID: productID,
		UserID:    userID,
		UserName:  user.Name,
		Rating:    in.Rating,
		Title:     in.Title,
		Comment:   in.Comment,
		CreatedAt: r.now(),
	}
	if err := r.reviews.InsertReview(ctx, &review); err != nil {
		return models.Review{}, fmt.Errorf("insert review: %w", err)
	}
	return review, nil
}

// Summary returns the average rating and review count for a product.
func (r *Reviews) Summary(ctx context.Context, productID primitive.ObjectID) (models.ReviewSummary, error) {
	summary, err := r.reviews.ReviewSummary(ctx, productID)
	if err != nil {
		return models.ReviewSummary{}, fmt.Errorf("summarize reviews: %w", err)
	}
	return summary, nil
}

// Delete removes a review.
func (r *Reviews) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := r.reviews.DeleteReview(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return notFoundf("review %s not found", id.Hex())
	}
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
