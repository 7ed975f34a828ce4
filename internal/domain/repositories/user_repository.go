package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devilbiswajit/VideoStream/internal/application/query"
	"github.com/devilbiswajit/VideoStream/internal/domain/entities"
)

// ErrNotFound is returned by lookups that match no document.
var ErrNotFound = errors.New("document not found")

type UserRepository interface {
	Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*entities.User, error)
	// FindByUsernameOrEmail matches either field; empty arguments never match.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*entities.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// SetRefreshToken overwrites the single stored refresh token.
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	// ClearRefreshToken unsets the field so absence stays distinguishable
	// from an empty value.
	ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error

	UpdatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error
	UpdateAccountDetails(ctx context.Context, id primitive.ObjectID, fullName, email string) (*entities.User, error)
	UpdateAvatar(ctx context.Context, id primitive.ObjectID, url string) (*entities.User, error)
	UpdateCoverImage(ctx context.Context, id primitive.ObjectID, url string) (*entities.User, error)

	ChannelProfile(ctx context.Context, username string, viewerID primitive.ObjectID) (*query.ChannelProfile, error)
	WatchHistory(ctx context.Context, id primitive.ObjectID) ([]query.WatchHistoryEntry, error)
	AppendWatchHistory(ctx context.Context, id, videoID primitive.ObjectID) error
}

type VideoRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*entities.Video, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
}
