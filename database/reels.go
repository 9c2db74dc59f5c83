package database

import (
	"context"
	"time"

	"aura/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) CreateReel(ctx context.Context, r *models.Reel) error {
	now := time.Now()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Likes == nil {
		r.Likes = []primitive.ObjectID{}
	}
	if r.Comments == nil {
		r.Comments = []models.Comment{}
	}

	if _, err := s.reels.InsertOne(ctx, r); err != nil {
		return errors.Wrap(err, "insert reel")
	}
	return nil
}

func (s *MongoStore) ReelByID(ctx context.Context, id primitive.ObjectID) (*models.Reel, error) {
	var reel models.Reel
	if err := s.reels.FindOne(ctx, bson.M{"_id": id}).Decode(&reel); err != nil {
		return nil, errors.Wrap(notFound(err), "find reel")
	}
	return &reel, nil
}

func (s *MongoStore) ListReels(ctx context.Context, owner *primitive.ObjectID) ([]models.Reel, error) {
	filter := bson.M{}
	if owner != nil {
		filter["userId"] = *owner
	}

	cursor, err := s.reels.Find(ctx, filter, options.Find().SetSort(bson.D{{"createdAt", -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find reels")
	}
	defer cursor.Close(ctx)

	reels := []models.Reel{}
	if err := cursor.All(ctx, &reels); err != nil {
		return nil, errors.Wrap(err, "decode reels")
	}
	return reels, nil
}

func (s *MongoStore) DeleteReel(ctx context.Context, id primitive.ObjectID) (*models.Reel, error) {
	var reel models.Reel
	if err := s.reels.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&reel); err != nil {
		return nil, errors.Wrap(notFound(err), "delete reel")
	}
	return &reel, nil
}

func (s *MongoStore) ToggleReelLike(ctx context.Context, reelID, userID primitive.ObjectID) (models.LikeState, error) {
	var doc struct {
		Likes []primitive.ObjectID `bson:"likes"`
	}
	err := s.reels.FindOneAndUpdate(ctx,
		bson.M{"_id": reelID},
		toggleMembership("likes", "", userID),
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"likes": 1}),
	).Decode(&doc)
	if err != nil {
		return models.LikeState{}, errors.Wrap(notFound(err), "toggle reel like")
	}
	return models.LikeState{Liked: containsID(doc.Likes, userID), Count: len(doc.Likes)}, nil
}

func (s *MongoStore) ReelLikeState(ctx context.Context, reelID, userID primitive.ObjectID) (models.LikeState, error) {
	var doc struct {
		Likes []primitive.ObjectID `bson:"likes"`
	}
	err := s.reels.FindOne(ctx,
		bson.M{"_id": reelID},
		options.FindOne().SetProjection(bson.M{"likes": 1}),
	).Decode(&doc)
	if err != nil {
		return models.LikeState{}, errors.Wrap(notFound(err), "find reel likes")
	}
	return models.LikeState{Liked: containsID(doc.Likes, userID), Count: len(doc.Likes)}, nil
}

func (s *MongoStore) AddReelComment(ctx context.Context, reelID primitive.ObjectID, c models.Comment) error {
	return pushComment(ctx, s.reels, reelID, c)
}

func (s *MongoStore) ReelComments(ctx context.Context, reelID primitive.ObjectID) ([]models.Comment, error) {
	return findComments(ctx, s.reels, reelID)
}
