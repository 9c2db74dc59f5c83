package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultBio = "enter your bio here ..."

type User struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username    string               `bson:"username" json:"username"`
	Email       string               `bson:"email" json:"email"`
	Password    string               `bson:"password" json:"-"`
	Fullname    string               `bson:"fullname" json:"fullname"`
	ProfilePic  Media                `bson:"profilePic" json:"profilePic"`
	Bio         string               `bson:"bio" json:"bio"`
	FollowedBy  []primitive.ObjectID `bson:"followedBy" json:"followedBy"`
	IsFollowing []primitive.ObjectID `bson:"isFollowing" json:"isFollowing"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
}

// UserSummary is the shape used for search results and comment authors.
type UserSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
}

// ProfileUpdate carries the fields of a partial profile edit. Nil means
// "leave unchanged".
type ProfileUpdate struct {
	Bio        *string
	Fullname   *string
	ProfilePic *Media
}

func (u ProfileUpdate) Empty() bool {
	return u.Bio == nil && u.Fullname == nil && u.ProfilePic == nil
}

// Normalize replaces nil id sets so they serialize as [] instead of null.
func (u *User) Normalize() {
	if u.FollowedBy == nil {
		u.FollowedBy = []primitive.ObjectID{}
	}
	if u.IsFollowing == nil {
		u.IsFollowing = []primitive.ObjectID{}
	}
}
