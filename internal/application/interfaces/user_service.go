package interfaces

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devilbiswajit/VideoStream/internal/application/command"
	"github.com/devilbiswajit/VideoStream/internal/application/common"
	"github.com/devilbiswajit/VideoStream/internal/application/query"
	"github.com/devilbiswajit/VideoStream/internal/domain/entities"
)

type UserService interface {
	Register(ctx context.Context, cmd *command.RegisterUserCommand) (*command.RegisterUserCommandResult, error)
	Login(ctx context.Context, cmd *command.LoginUserCommand) (*command.LoginUserCommandResult, error)
	Logout(ctx context.Context, userID primitive.ObjectID, accessToken string) error
	RefreshSession(ctx context.Context, cmd *command.RefreshSessionCommand) (*command.RefreshSessionCommandResult, error)
	ChangePassword(ctx context.Context, userID primitive.ObjectID, cmd *command.ChangePasswordCommand) error

	UpdateAccountDetails(ctx context.Context, userID primitive.ObjectID, cmd *command.UpdateAccountCommand) (*command.UpdateAccountCommandResult, error)
	UpdateAvatar(ctx context.Context, userID primitive.ObjectID, localPath string) (*common.UserResult, error)
	UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, localPath string) (*common.UserResult, error)

	ChannelProfile(ctx context.Context, username string, viewerID primitive.ObjectID) (*query.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]query.WatchHistoryEntry, error)
	RecordWatch(ctx context.Context, userID, videoID primitive.ObjectID) error

	// FindUserByID backs the auth middleware.
	FindUserByID(ctx context.Context, userID primitive.ObjectID) (*entities.User, error)
}
