package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

func (m *Mongo) InsertProduct(ctx context.Context, p *models.Product) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	result, err := m.Products.InsertOne(ctx, p)
	if err != nil {
		return translate(err)
	}
	p.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) FindProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	var product models.Product
	err := m.Products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	return product, translate(err)
}

func (m *Mongo) FindProducts(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	cursor, err := m.Products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Product](ctx, cursor)
}

func (m *Mongo) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.Products.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, cursor.Err()
}

func productSet(u ProductUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.ImageURL != nil {
		set["image_url"] = *u.ImageURL
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.StockQuantity != nil {
		set["stock_quantity"] = *u.StockQuantity
	}
	if u.Featured != nil {
		set["featured"] = *u.Featured
	}
	return set
}

func (m *Mongo) UpdateProduct(ctx context.Context, id primitive.ObjectID, u ProductUpdate, now time.Time) (models.Product, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	var product models.Product
	err := m.Products.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": productSet(u, now)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	return product, translate(err)
}

func (m *Mongo) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	result, err := m.Products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock subtracts qty only while enough stock remains, so the
// stored quantity never goes negative.
func (m *Mongo) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	result, err := m.Products.UpdateOne(ctx,
		bson.M{"_id": id, "stock_quantity": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock_quantity": -qty}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		n, err := m.Products.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (m *Mongo) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	result, err := m.Products.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stock_quantity": qty}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) CountProducts(ctx context.Context) (int64, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()
	return m.Products.CountDocuments(ctx, bson.M{})
}
