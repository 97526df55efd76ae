package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

func (m *Mongo) InsertUser(ctx context.Context, u *models.User) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	result, err := m.Users.InsertOne(ctx, u)
	if err != nil {
		return translate(err)
	}
	u.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) FindUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	var user models.User
	err := m.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	return user, translate(err)
}

func (m *Mongo) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	var user models.User
	err := m.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	return user, translate(err)
}

func (m *Mongo) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.M{"password": 0})
	cursor, err := m.Users.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.User](ctx, cursor)
}

func (m *Mongo) UpdateUser(ctx context.Context, id primitive.ObjectID, u UserUpdate) (models.User, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Address != nil {
		set["address"] = *u.Address
	}
	if u.Role != nil {
		set["role"] = *u.Role
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if len(set) == 0 {
		return m.FindUser(ctx, id)
	}

	var user models.User
	err := m.Users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	return user, translate(err)
}

func (m *Mongo) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()
	return m.Users.CountDocuments(ctx, bson.M{})
}
