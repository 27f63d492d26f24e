package profile

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConfig describes the mongo-backed profile store.
type MongoConfig struct {
	ConnectionURL  string        `env:"FLAGKIT_MONGO_URL,required"`
	Database       string        `env:"FLAGKIT_MONGO_DB" envDefault:"flagkit"`
	Collection     string        `env:"FLAGKIT_MONGO_COLLECTION" envDefault:"user_profiles"`
	RetryAttempts  int           `env:"FLAGKIT_MONGO_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"FLAGKIT_MONGO_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"FLAGKIT_MONGO_CONNECT_TIMEOUT" envDefault:"30s"`
}

// MongoStore keeps one document per user:
//
//	{"_id": userID, "decisions": {experimentID: variationID}}
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore wraps an existing collection.
func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

// OpenMongo connects with retries and returns a ready store.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	for range cfg.RetryAttempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return NewMongoStore(client.Database(cfg.Database).Collection(cfg.Collection)), nil
			}
			_ = client.Disconnect(ctx)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrStoreNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, ErrStoreNotReady
}

type mongoProfile struct {
	UserID    string            `bson:"_id"`
	Decisions map[string]string `bson:"decisions"`
}

// Lookup reads the user's document.
func (s *MongoStore) Lookup(ctx context.Context, userID string) (Profile, error) {
	var doc mongoProfile
	err := s.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, errors.Join(ErrLookupFailed, err)
	}
	return Profile{UserID: doc.UserID, Decisions: doc.Decisions}, nil
}

// Save upserts one assignment into the user's document.
func (s *MongoStore) Save(ctx context.Context, userID, experimentID, variationID string) error {
	if userID == "" || experimentID == "" || variationID == "" {
		return ErrInvalidProfile
	}

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"decisions." + experimentID: variationID}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}
