package sink

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"sjsage522/weibosearch/pkg/errors"
)

// MongoSink upserts posts into <database>.weibo keyed by post id
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoSink connects to uri and verifies the server is reachable
func NewMongoSink(ctx context.Context, uri, database string) (*MongoSink, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.NewStorage("mongo", "failed to connect", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.NewStorage("mongo", "failed to ping "+uri, err)
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(database).Collection("weibo"),
	}, nil
}

func (s *MongoSink) Name() string { return "mongo" }

func (s *MongoSink) Write(ctx context.Context, rec Record) error {
	filter := bson.M{"id": rec.Post.ID}
	update := bson.M{"$set": rec.Post}
	opts := options.UpdateOne().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.NewStorage("mongo", "failed to upsert "+rec.Post.ID, err)
	}
	return nil
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
