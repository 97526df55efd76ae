package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating = 1
	MaxRating = 5

	// FeaturedRating is the lowest rating listed among featured reviews.
	FeaturedRating = 4
)

// Review is a product review submitted by a user.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	UserName  string             `bson:"user_name" json:"userName"`
	Rating    int                `bson:"rating" json:"rating"`
	Title     string             `bson:"title" json:"title"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// ReviewSummary holds aggregate review statistics for a product.
type ReviewSummary struct {
	AverageRating float64 `bson:"average_rating" json:"averageRating"`
	TotalCount    int     `bson:"total_count" json:"totalCount"`
}
