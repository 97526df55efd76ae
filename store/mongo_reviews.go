package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

func (m *Mongo) InsertReview(ctx context.Context, r *models.Review) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	result, err := m.Reviews.InsertOne(ctx, r)
	if err != nil {
		return translate(err)
	}
	r.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) ListReviews(ctx context.Context, f ReviewFilter) ([]models.Review, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	filter := bson.M{}
	if !f.ProductID.IsZero() {
		filter["product_id"] = f.ProductID
	}
	if f.MinRating > 0 {
		filter["rating"] = bson.M{"$gte": f.MinRating}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.Reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Review](ctx, cursor)
}

func (m *Mongo) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	result, err := m.Reviews.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) ReviewSummary(ctx context.Context, productID primitive.ObjectID) (models.ReviewSummary, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"average_rating": bson.M{"$avg": "$rating"},
			"total_count":    bson.M{"$sum": 1},
		}}},
	}
	cursor, err := m.Reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return models.ReviewSummary{}, err
	}
	rows, err := decodeAll[models.ReviewSummary](ctx, cursor)
	if err != nil || len(rows) == 0 {
		return models.ReviewSummary{}, err
	}
	return rows[0], nil
}

func (m *Mongo) CountReviews(ctx context.Context) (int64, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()
	return m.Reviews.CountDocuments(ctx, bson.M{})
}
