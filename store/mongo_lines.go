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

// upsertLineUpdate builds the single-round-trip update for UpsertLine. Cart
// lines use a pipeline so the clamp is computed against the stored quantity
// on the server.
func upsertLineUpdate(kind models.LineKind, delta, limit int, now time.Time) interface{} {
	if kind == models.KindWishlist {
		return bson.M{"$setOnInsert": bson.M{"added_at": now, "updated_at": now}}
	}
	quantity := bson.M{"$min": bson.A{
		bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$quantity", 0}}, delta}},
		limit,
	}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "quantity", Value: quantity},
			{Key: "added_at", Value: bson.M{"$ifNull": bson.A{"$added_at", now}}},
			{Key: "updated_at", Value: now},
		}}},
	}
}

// UpsertLine implements LineStore. Two first inserts racing on the same key
// collide on the unique index; the loser is retried once, at which point the
// document exists and the update path applies.
func (m *Mongo) UpsertLine(ctx context.Context, kind models.LineKind, userID, productID primitive.ObjectID, delta, limit int, now time.Time) (models.LineItem, bool, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	coll := m.lines(kind)
	filter := bson.M{"user_id": userID, "product_id": productID}
	update := upsertLineUpdate(kind, delta, limit, now)

	res, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		res, err = coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	}
	if err != nil {
		return models.LineItem{}, false, translate(err)
	}

	var line models.LineItem
	if err := coll.FindOne(ctx, filter).Decode(&line); err != nil {
		return models.LineItem{}, false, translate(err)
	}
	return line, res.UpsertedCount == 1, nil
}

func (m *Mongo) FindLine(ctx context.Context, kind models.LineKind, userID, lineID primitive.ObjectID) (models.LineItem, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	var line models.LineItem
	err := m.lines(kind).FindOne(ctx, bson.M{"_id": lineID, "user_id": userID}).Decode(&line)
	return line, translate(err)
}

func (m *Mongo) FindLineByProduct(ctx context.Context, kind models.LineKind, userID, productID primitive.ObjectID) (models.LineItem, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	var line models.LineItem
	err := m.lines(kind).FindOne(ctx, bson.M{"user_id": userID, "product_id": productID}).Decode(&line)
	return line, translate(err)
}

func (m *Mongo) ListLines(ctx context.Context, kind models.LineKind, userID primitive.ObjectID) ([]models.LineItem, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}})
	cursor, err := m.lines(kind).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.LineItem](ctx, cursor)
}

func (m *Mongo) SetLineQuantity(ctx context.Context, kind models.LineKind, userID, lineID primitive.ObjectID, qty int, now time.Time) (models.LineItem, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	var line models.LineItem
	err := m.lines(kind).FindOneAndUpdate(ctx,
		bson.M{"_id": lineID, "user_id": userID},
		bson.M{"$set": bson.M{"quantity": qty, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&line)
	return line, translate(err)
}

func (m *Mongo) DeleteLine(ctx context.Context, kind models.LineKind, userID, lineID primitive.ObjectID) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	result, err := m.lines(kind).DeleteOne(ctx, bson.M{"_id": lineID, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteLineByProduct(ctx context.Context, kind models.LineKind, userID, productID primitive.ObjectID) (bool, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	result, err := m.lines(kind).DeleteOne(ctx, bson.M{"user_id": userID, "product_id": productID})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (m *Mongo) DeleteLines(ctx context.Context, kind models.LineKind, lineIDs []primitive.ObjectID) error {
	if len(lineIDs) == 0 {
		return nil
	}
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	_, err := m.lines(kind).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": lineIDs}})
	return err
}

func (m *Mongo) ClearLines(ctx context.Context, kind models.LineKind, userID primitive.ObjectID) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	_, err := m.lines(kind).DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
