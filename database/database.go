package database

import (
	"context"
	"time"

	"aura/logger"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection         = "users"
	postsCollection         = "posts"
	reelsCollection         = "reels"
	subscriptionsCollection = "push_subscriptions"
)

// MongoStore implements Store on MongoDB.
type MongoStore struct {
	client        *mongo.Client
	users         *mongo.Collection
	posts         *mongo.Collection
	reels         *mongo.Collection
	subscriptions *mongo.Collection

	// useTransactions wraps two-document writes (follow/unfollow) in a
	// transaction. Requires a replica set.
	useTransactions bool
}

func ConnectMongo(ctx context.Context, uri, dbName string, useTransactions bool) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "ping mongo")
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:          client,
		users:           db.Collection(usersCollection),
		posts:           db.Collection(postsCollection),
		reels:           db.Collection(reelsCollection),
		subscriptions:   db.Collection(subscriptionsCollection),
		useTransactions: useTransactions,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	logger.Log.WithField("db", dbName).Info("connected to MongoDB")
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{"username", 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{"email", 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return errors.Wrap(err, "create user indexes")
	}

	if _, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{"userId", 1}, {"createdAt", -1}},
	}); err != nil {
		return errors.Wrap(err, "create post indexes")
	}

	if _, err := s.reels.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{"userId", 1}, {"createdAt", -1}},
	}); err != nil {
		return errors.Wrap(err, "create reel indexes")
	}

	if _, err := s.subscriptions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{"userId", 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return errors.Wrap(err, "create subscription indexes")
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Disconnect(ctx context.Context) error {
	if s.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		return errors.Wrap(err, "disconnect mongo")
	}

	logger.Log.Info("disconnected from MongoDB")
	return nil
}

// withinTransaction runs fn in a transaction when enabled, otherwise runs it
// directly.
func (s *MongoStore) withinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.useTransactions {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "start session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
