package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Comment is embedded in posts and reels. Comments are append-only.
type Comment struct {
	ID     primitive.ObjectID `bson:"_id" json:"_id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	Text   string             `bson:"text" json:"text"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	ID     primitive.ObjectID `json:"_id"`
	UserID UserSummary        `json:"userId"`
	Text   string             `json:"text"`
}
