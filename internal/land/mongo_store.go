package land

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, db, coll string) (*MongoStore, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	cli, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	c := cli.Database(db).Collection(coll)

	_, _ = c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
	})

	return &MongoStore{coll: c}, nil
}

func NewMongoStoreWithClient(cli *mongo.Client, db, coll string) *MongoStore {
	return &MongoStore{coll: cli.Database(db).Collection(coll)}
}

func (s *MongoStore) Insert(rec *Record) error {
	if rec.ID == "" {
		rec.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	_, err := s.coll.InsertOne(context.Background(), rec)
	return err
}

func (s *MongoStore) FindByOwner(ownerID string, q Query) ([]Record, error) {
	filter := bson.M{"owner_id": ownerID}
	if q.Type != "" {
		filter["land_type"] = q.Type
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.coll.Find(context.Background(), filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(context.Background())

	out := []Record{}
	if err := cur.All(context.Background(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) FindByIDAndOwner(id, ownerID string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(context.Background(), bson.M{"_id": id, "owner_id": ownerID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
