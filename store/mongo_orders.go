package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

func (m *Mongo) InsertOrder(ctx context.Context, o *models.Order) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	result, err := m.Orders.InsertOne(ctx, o)
	if err != nil {
		return translate(err)
	}
	o.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) FindOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	var order models.Order
	err := m.Orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	return order, translate(err)
}

func (m *Mongo) ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return m.findOrders(ctx, bson.M{"user_id": userID})
}

func (m *Mongo) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return m.findOrders(ctx, filter)
}

func (m *Mongo) findOrders(ctx context.Context, filter bson.M) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.Orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Order](ctx, cursor)
}

func (m *Mongo) SetOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, now time.Time) (models.Order, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	var order models.Order
	err := m.Orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	return order, translate(err)
}

func (m *Mongo) CountOrders(ctx context.Context) (int64, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()
	return m.Orders.CountDocuments(ctx, bson.M{})
}

// Revenue sums the totals of every order that was not cancelled.
func (m *Mongo) Revenue(ctx context.Context) (float64, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": models.StatusCancelled}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "revenue": bson.M{"$sum": "$total"}}}},
	}
	cursor, err := m.Orders.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	rows, err := decodeAll[struct {
		Revenue float64 `bson:"revenue"`
	}](ctx, cursor)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[0].Revenue, nil
}
