package database

import (
	"context"
	"time"

	"aura/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// toggleMembership builds a single-stage update pipeline that removes userID
// from arrayField when present and appends it otherwise. When counterField is
// set it is moved by one in the same direction and never drops below zero.
// Running it through FindOneAndUpdate makes the toggle atomic per document.
func toggleMembership(arrayField, counterField string, userID primitive.ObjectID) mongo.Pipeline {
	current := bson.D{{"$ifNull", bson.A{"$" + arrayField, bson.A{}}}}
	present := bson.D{{"$in", bson.A{userID, current}}}

	set := bson.D{
		{arrayField, bson.D{{"$cond", bson.A{
			present,
			bson.D{{"$filter", bson.D{
				{"input", current},
				{"cond", bson.D{{"$ne", bson.A{"$$this", userID}}}},
			}}},
			bson.D{{"$concatArrays", bson.A{current, bson.A{userID}}}},
		}}}},
		{"updatedAt", "$$NOW"},
	}

	if counterField != "" {
		count := bson.D{{"$ifNull", bson.A{"$" + counterField, 0}}}
		set = append(set, bson.E{Key: counterField, Value: bson.D{{"$cond", bson.A{
			present,
			bson.D{{"$max", bson.A{0, bson.D{{"$subtract", bson.A{count, 1}}}}}},
			bson.D{{"$add", bson.A{count, 1}}},
		}}}})
	}

	return mongo.Pipeline{{{"$set", set}}}
}

func (s *MongoStore) CreatePost(ctx context.Context, p *models.Post) error {
	now := time.Now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	if p.LikedBy == nil {
		p.LikedBy = []primitive.ObjectID{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}

	if _, err := s.posts.InsertOne(ctx, p); err != nil {
		return errors.Wrap(err, "insert post")
	}
	return nil
}

func (s *MongoStore) PostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, errors.Wrap(notFound(err), "find post")
	}
	return &post, nil
}

func (s *MongoStore) PostsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	cursor, err := s.posts.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{"createdAt", -1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find posts")
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, errors.Wrap(err, "decode posts")
	}
	return posts, nil
}

func (s *MongoStore) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete post")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) TogglePostLike(ctx context.Context, postID, userID primitive.ObjectID) (models.LikeState, error) {
	var doc struct {
		Likes   int                  `bson:"likes"`
		LikedBy []primitive.ObjectID `bson:"likedBy"`
	}
	err := s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		toggleMembership("likedBy", "likes", userID),
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"likes": 1, "likedBy": 1}),
	).Decode(&doc)
	if err != nil {
		return models.LikeState{}, errors.Wrap(notFound(err), "toggle post like")
	}
	return models.LikeState{Liked: containsID(doc.LikedBy, userID), Count: doc.Likes}, nil
}

func (s *MongoStore) PostLikeState(ctx context.Context, postID, userID primitive.ObjectID) (models.LikeState, error) {
	var doc struct {
		Likes   int                  `bson:"likes"`
		LikedBy []primitive.ObjectID `bson:"likedBy"`
	}
	err := s.posts.FindOne(ctx,
		bson.M{"_id": postID},
		options.FindOne().SetProjection(bson.M{"likes": 1, "likedBy": 1}),
	).Decode(&doc)
	if err != nil {
		return models.LikeState{}, errors.Wrap(notFound(err), "find post likes")
	}
	return models.LikeState{Liked: containsID(doc.LikedBy, userID), Count: doc.Likes}, nil
}

func (s *MongoStore) AddPostComment(ctx context.Context, postID primitive.ObjectID, c models.Comment) error {
	return pushComment(ctx, s.posts, postID, c)
}

func (s *MongoStore) PostComments(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	return findComments(ctx, s.posts, postID)
}

func pushComment(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, c models.Comment) error {
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"comments": c},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return errors.Wrap(err, "push comment")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func findComments(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) ([]models.Comment, error) {
	var doc struct {
		Comments []models.Comment `bson:"comments"`
	}
	err := coll.FindOne(ctx,
		bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"comments": 1}),
	).Decode(&doc)
	if err != nil {
		return nil, errors.Wrap(notFound(err), "find comments")
	}
	if doc.Comments == nil {
		doc.Comments = []models.Comment{}
	}
	return doc.Comments, nil
}
