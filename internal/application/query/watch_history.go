package query

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VideoOwner is the public projection of a video's owning user embedded in
// watch-history entries.
type VideoOwner struct {
	Username   string `bson:"username" json:"username"`
	FullName   string `bson:"fullName" json:"fullName"`
	Avatar     string `bson:"avatar" json:"avatar"`
	CoverImage string `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
}

// WatchHistoryEntry is a watched video with its owner resolved. Entries are
// returned in the order the user watched them.
type WatchHistoryEntry struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	VideoFile   string             `bson:"videoFile" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	Owner       VideoOwner         `bson:"owner" json:"owner"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
