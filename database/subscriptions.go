package database

import (
	"context"

	"aura/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SavePushSubscription upserts: update if exists, insert if not.
func (s *MongoStore) SavePushSubscription(ctx context.Context, sub *models.PushSubscription) error {
	_, err := s.subscriptions.UpdateOne(ctx,
		bson.M{"userId": sub.UserID},
		bson.M{
			"$set":         bson.M{"endpoint": sub.Endpoint, "keys": sub.Keys},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(err, "save push subscription")
}

func (s *MongoStore) FindPushSubscription(ctx context.Context, userID primitive.ObjectID) (*models.PushSubscription, error) {
	var sub models.PushSubscription
	if err := s.subscriptions.FindOne(ctx, bson.M{"userId": userID}).Decode(&sub); err != nil {
		return nil, errors.Wrap(notFound(err), "find push subscription")
	}
	return &sub, nil
}

func (s *MongoStore) DeletePushSubscription(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.subscriptions.DeleteOne(ctx, bson.M{"userId": userID})
	return errors.Wrap(err, "delete push subscription")
}
