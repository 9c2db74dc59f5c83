package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type PushKeys struct {
	P256dh string `bson:"p256dh" json:"p256dh"`
	Auth   string `bson:"auth" json:"auth"`
}

// PushSubscription is a browser web-push endpoint. One per user; the latest
// subscription replaces the previous one.
type PushSubscription struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	Endpoint string             `bson:"endpoint" json:"endpoint"`
	Keys     PushKeys           `bson:"keys" json:"keys"`
}
