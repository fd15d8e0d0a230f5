package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoUserStore struct {
	cli  *mongo.Client
	coll *mongo.Collection
}

func NewMongoUserStore(ctx context.Context, uri, db, coll string) (*MongoUserStore, error) {
	opts := options.Client().ApplyURI(uri)
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	cli, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return nil, err
	}
	// optional ping
	_ = cli.Ping(dialCtx, readpref.Primary())

	c := cli.Database(db).Collection(coll)

	// Ensure a unique index on email
	_, _ = c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoUserStore{cli: cli, coll: c}, nil
}

func NewMongoUserStoreWithClient(cli *mongo.Client, db, coll string) *MongoUserStore {
	return &MongoUserStore{cli: cli, coll: cli.Database(db).Collection(coll)}
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PassHash     string    `bson:"pass_hash"`
	Role         string    `bson:"role"`
	PhoneNumber  string    `bson:"phone_number,omitempty"`
	GithubURL    string    `bson:"github_url,omitempty"`
	FacebookURL  string    `bson:"facebook_url,omitempty"`
	InstagramURL string    `bson:"instagram_url,omitempty"`
	Description  string    `bson:"description,omitempty"`
	Profession   string    `bson:"profession,omitempty"`
	ProfileImage string    `bson:"profile_image,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Add inserts a new user and fills in its generated ID.
func (s *MongoUserStore) Add(u *User) error {
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	doc := userDoc{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PassHash:     u.PassHash,
		Role:         string(u.Role),
		PhoneNumber:  u.PhoneNumber,
		GithubURL:    u.GithubURL,
		FacebookURL:  u.FacebookURL,
		InstagramURL: u.InstagramURL,
		Description:  u.Description,
		Profession:   u.Profession,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
	}
	_, err := s.coll.InsertOne(context.Background(), doc)
	if mongo.IsDuplicateKeyError(err) {
		return errors.New("email already exists")
	}
	return err
}

func (s *MongoUserStore) FindByID(id string) (*User, error) {
	return s.findOne(bson.M{"_id": id})
}

func (s *MongoUserStore) FindByEmail(email string) (*User, error) {
	return s.findOne(bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *MongoUserStore) findOne(filter interface{}) (*User, error) {
	var doc userDoc
	err := s.coll.FindOne(context.Background(), filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toUser(), nil
}

func (s *MongoUserStore) UpdateDetails(id string, upd ProfileUpdate) (*User, error) {
	set := bson.M{
		"phone_number":  upd.PhoneNumber,
		"github_url":    upd.GithubURL,
		"facebook_url":  upd.FacebookURL,
		"instagram_url": upd.InstagramURL,
		"description":   upd.Description,
		"profession":    upd.Profession,
	}
	if upd.Username != "" {
		set["username"] = upd.Username
	}
	if email := strings.ToLower(strings.TrimSpace(upd.Email)); email != "" {
		set["email"] = email
	}
	if upd.ProfileImage != "" {
		set["profile_image"] = upd.ProfileImage
	}

	after := options.After
	var doc userDoc
	err := s.coll.FindOneAndUpdate(
		context.Background(),
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toUser(), nil
}

func (d *userDoc) toUser() *User {
	role, ok := ParseRole(d.Role)
	if !ok {
		role = RoleUser
	}
	return &User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		PassHash:     d.PassHash,
		Role:         role,
		PhoneNumber:  d.PhoneNumber,
		GithubURL:    d.GithubURL,
		FacebookURL:  d.FacebookURL,
		InstagramURL: d.InstagramURL,
		Description:  d.Description,
		Profession:   d.Profession,
		ProfileImage: d.ProfileImage,
		CreatedAt:    d.CreatedAt,
	}
}
