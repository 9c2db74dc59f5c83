package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	UserID      primitive.ObjectID   `bson:"userId" json:"userId"`
	Image       Media                `bson:"image" json:"image"`
	Caption     string               `bson:"caption" json:"caption"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Likes       int                  `bson:"likes" json:"likes"`
	LikedBy     []primitive.ObjectID `bson:"likedBy" json:"likedBy"`
	Comments    []Comment            `bson:"comments" json:"comments"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// LikeState is the result of a like toggle or membership check.
type LikeState struct {
	Liked bool
	Count int
}
