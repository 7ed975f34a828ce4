package entities

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription is a directed edge subscriber -> channel between two users.
// Counts and the isSubscribed flag on channel profiles are derived from it.
type Subscription struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Subscriber primitive.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    primitive.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
