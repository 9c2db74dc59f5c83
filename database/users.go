package database

import (
	"context"
	"regexp"
	"strings"
	"time"

	"aura/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	count, err := s.users.CountDocuments(ctx, bson.M{"email": u.Email})
	if err != nil {
		return errors.Wrap(err, "count users by email")
	}
	if count > 0 {
		return ErrDuplicateEmail
	}

	count, err = s.users.CountDocuments(ctx, bson.M{"username": u.Username})
	if err != nil {
		return errors.Wrap(err, "count users by username")
	}
	if count > 0 {
		return ErrDuplicateUsername
	}

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Normalize()

	if _, err := s.users.InsertOne(ctx, u); err != nil {
		// Lost a race against a concurrent registration.
		return duplicateUserError(err)
	}
	return nil
}

// duplicateUserError maps a unique index violation on users to the matching
// sentinel. The email index is reported first, as in the pre-insert checks.
func duplicateUserError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return errors.Wrap(err, "insert user")
	}
	if strings.Contains(err.Error(), "username") && !strings.Contains(err.Error(), "email") {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, errors.Wrap(notFound(err), "find user by email")
	}
	user.Normalize()
	return &user, nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, errors.Wrap(notFound(err), "find user by id")
	}
	user.Normalize()
	return &user, nil
}

func (s *MongoStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	if update.Empty() {
		return s.FindUserByID(ctx, id)
	}

	set := bson.M{}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Fullname != nil {
		set["fullname"] = *update.Fullname
	}
	if update.ProfilePic != nil {
		set["profilePic"] = *update.ProfilePic
	}

	var user models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, errors.Wrap(notFound(err), "update profile")
	}
	user.Normalize()
	return &user, nil
}

func (s *MongoStore) SearchUsernames(ctx context.Context, prefix string) ([]models.UserSummary, error) {
	filter := bson.M{}
	if prefix != "" {
		filter["username"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix), Options: "i"}
	}

	findOptions := options.Find().
		SetProjection(bson.M{"username": 1}).
		SetSort(bson.D{{"username", 1}})

	cursor, err := s.users.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}
	defer cursor.Close(ctx)

	users := []models.UserSummary{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}

func (s *MongoStore) UserSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	result := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := s.users.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"username": 1}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find user summaries")
	}
	defer cursor.Close(ctx)

	var users []models.UserSummary
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode user summaries")
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *MongoStore) Follow(ctx context.Context, follower, followee primitive.ObjectID) error {
	if follower == followee {
		return ErrSelfFollow
	}
	if err := s.requireUsers(ctx, follower, followee); err != nil {
		return err
	}

	return s.withinTransaction(ctx, func(ctx context.Context) error {
		res, err := s.users.UpdateOne(ctx,
			bson.M{"_id": follower, "isFollowing": bson.M{"$ne": followee}},
			bson.M{"$addToSet": bson.M{"isFollowing": followee}},
		)
		if err != nil {
			return errors.Wrap(err, "add following")
		}
		if res.MatchedCount == 0 {
			return ErrAlreadyFollowing
		}

		if _, err := s.users.UpdateOne(ctx,
			bson.M{"_id": followee},
			bson.M{"$addToSet": bson.M{"followedBy": follower}},
		); err != nil {
			return errors.Wrap(err, "add follower")
		}
		return nil
	})
}

func (s *MongoStore) Unfollow(ctx context.Context, follower, followee primitive.ObjectID) error {
	return s.withinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.UpdateOne(ctx,
			bson.M{"_id": follower},
			bson.M{"$pull": bson.M{"isFollowing": followee}},
		); err != nil {
			return errors.Wrap(err, "remove following")
		}

		if _, err := s.users.UpdateOne(ctx,
			bson.M{"_id": followee},
			bson.M{"$pull": bson.M{"followedBy": follower}},
		); err != nil {
			return errors.Wrap(err, "remove follower")
		}
		return nil
	})
}

func (s *MongoStore) requireUsers(ctx context.Context, ids ...primitive.ObjectID) error {
	count, err := s.users.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return errors.Wrap(err, "count users")
	}
	if count < int64(len(ids)) {
		return ErrNotFound
	}
	return nil
}
