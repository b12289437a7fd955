package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jame-iro/agrolink-backend/internal/model"
)

const (
	usersColl    = "users"
	productsColl = "products"
	ordersColl   = "orders"
)

// Mongo bundles the three collection-backed stores over one database handle.
type Mongo struct {
	Users    Users
	Products Products
	Orders   Orders
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		Users:    &mongoUsers{c: db.Collection(usersColl)},
		Products: &mongoProducts{c: db.Collection(productsColl)},
		Orders:   &mongoOrders{c: db.Collection(ordersColl)},
	}
}

// EnsureIndexes creates the indexes the queries below rely on: the unique
// telegramId lookup, the product text search and the list/ownership scans.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "telegramId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(productsColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}, {Key: "tags", Value: "text"}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "isAvailable", Value: 1}}},
		{Keys: bson.D{{Key: "farmerTelegramId", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(ordersColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "consumerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "farmerId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

// --- users ---

type mongoUsers struct{ c *mongo.Collection }

func (s *mongoUsers) ByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var u model.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *mongoUsers) ByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var u model.User
	if err := s.c.FindOne(ctx, bson.M{"telegramId": telegramID}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *mongoUsers) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, u)
	return err
}

func (s *mongoUsers) Update(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoUsers) SetRole(ctx context.Context, telegramID int64, role model.Role) (*model.User, error) {
	var u model.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"telegramId": telegramID},
		bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// --- products ---

type mongoProducts struct{ c *mongo.Collection }

func (s *mongoProducts) ByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	var p model.Product
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *mongoProducts) Create(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, p)
	return err
}

func (s *mongoProducts) Update(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*model.Product, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Images != nil {
		set["images"] = *patch.Images
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.IsAvailable != nil {
		set["isAvailable"] = *patch.IsAvailable
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.Tags != nil {
		set["tags"] = *patch.Tags
	}
	var p model.Product
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *mongoProducts) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoProducts) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	q := bson.M{"isAvailable": true}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.FarmerTelegramID != 0 {
		q["farmerTelegramId"] = f.FarmerTelegramID
	}
	if f.Search != "" {
		q["$text"] = bson.M{"$search": f.Search}
	}
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []model.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *mongoProducts) Reserve(ctx context.Context, id primitive.ObjectID, qty int) error {
	// Pipeline update: the decrement and the availability recompute land
	// in one conditional write, so stock == 0 with isAvailable still true
	// can never be observed, not even across a crash.
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "isAvailable": true, "stock": bson.M{"$gte": qty}},
		mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"stock":     bson.M{"$subtract": bson.A{"$stock", qty}},
				"updatedAt": time.Now().UTC(),
			}}},
			{{Key: "$set", Value: bson.M{
				"isAvailable": bson.M{"$gt": bson.A{"$stock", 0}},
			}}},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// The guard failed; look at the document to say why.
		p, lookErr := s.ByID(ctx, id)
		if lookErr != nil {
			return lookErr
		}
		if !p.IsAvailable {
			return ErrUnavailable
		}
		return ErrInsufficientStock
	}
	return nil
}

func (s *mongoProducts) Restore(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"stock": qty},
			"$set": bson.M{"isAvailable": true, "updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// --- orders ---

type mongoOrders struct{ c *mongo.Collection }

func (s *mongoOrders) Create(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.CreatedAt = now
	o.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, o)
	return err
}

func (s *mongoOrders) ByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	var o model.Order
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (s *mongoOrders) ByConsumer(ctx context.Context, consumerID primitive.ObjectID) ([]model.Order, error) {
	return s.find(ctx, bson.M{"consumerId": consumerID})
}

func (s *mongoOrders) ByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]model.Order, error) {
	return s.find(ctx, bson.M{"farmerId": farmerID})
}

func (s *mongoOrders) find(ctx context.Context, q bson.M) ([]model.Order, error) {
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []model.Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *mongoOrders) SetStatus(ctx context.Context, id primitive.ObjectID, status model.OrderStatus) (*model.Order, error) {
	var prev model.Order
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&prev)
	if err != nil {
		return nil, mapErr(err)
	}
	return &prev, nil
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
