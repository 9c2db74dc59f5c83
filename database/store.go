package database

import (
	"context"

	"aura/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrSelfFollow        = errors.New("cannot follow yourself")
	ErrAlreadyFollowing  = errors.New("already following")
)

type UserStore interface {
	// CreateUser inserts u and fills in its ID. Fails with ErrDuplicateEmail
	// or ErrDuplicateUsername.
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// UpdateProfile applies only the non-nil fields and returns the updated user.
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error)
	// SearchUsernames matches a case-insensitive username prefix. An empty
	// prefix returns every user.
	SearchUsernames(ctx context.Context, prefix string) ([]models.UserSummary, error)
	UserSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error)
	Follow(ctx context.Context, follower, followee primitive.ObjectID) error
	Unfollow(ctx context.Context, follower, followee primitive.ObjectID) error
}

type PostStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	PostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	PostsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	TogglePostLike(ctx context.Context, postID, userID primitive.ObjectID) (models.LikeState, error)
	PostLikeState(ctx context.Context, postID, userID primitive.ObjectID) (models.LikeState, error)
	AddPostComment(ctx context.Context, postID primitive.ObjectID, c models.Comment) error
	PostComments(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error)
}

type ReelStore interface {
	CreateReel(ctx context.Context, r *models.Reel) error
	ReelByID(ctx context.Context, id primitive.ObjectID) (*models.Reel, error)
	// ListReels returns reels newest first; a nil owner lists every reel.
	ListReels(ctx context.Context, owner *primitive.ObjectID) ([]models.Reel, error)
	// DeleteReel removes the reel and returns what was deleted.
	DeleteReel(ctx context.Context, id primitive.ObjectID) (*models.Reel, error)
	ToggleReelLike(ctx context.Context, reelID, userID primitive.ObjectID) (models.LikeState, error)
	ReelLikeState(ctx context.Context, reelID, userID primitive.ObjectID) (models.LikeState, error)
	AddReelComment(ctx context.Context, reelID primitive.ObjectID, c models.Comment) error
	ReelComments(ctx context.Context, reelID primitive.ObjectID) ([]models.Comment, error)
}

type PushStore interface {
	SavePushSubscription(ctx context.Context, sub *models.PushSubscription) error
	FindPushSubscription(ctx context.Context, userID primitive.ObjectID) (*models.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, userID primitive.ObjectID) error
}

// Store is everything the API needs from persistence.
type Store interface {
	UserStore
	PostStore
	ReelStore
	PushStore
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
