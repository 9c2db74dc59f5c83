package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reel is a short video hosted externally. Likes is the liking set itself,
// its length is the like count.
type Reel struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	UserID      primitive.ObjectID   `bson:"userId" json:"userId"`
	VideoURL    string               `bson:"videoUrl" json:"videoUrl"`
	PublicID    string               `bson:"publicId,omitempty" json:"-"`
	Caption     string               `bson:"caption" json:"caption"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments    []Comment            `bson:"comments" json:"comments"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}
