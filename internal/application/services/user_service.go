package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devilbiswajit/VideoStream/internal/application/command"
	"github.com/devilbiswajit/VideoStream/internal/application/common"
	"github.com/devilbiswajit/VideoStream/internal/application/interfaces"
	"github.com/devilbiswajit/VideoStream/internal/application/mapper"
	"github.com/devilbiswajit/VideoStream/internal/application/query"
	"github.com/devilbiswajit/VideoStream/internal/domain/entities"
	"github.com/devilbiswajit/VideoStream/internal/domain/repositories"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/cache"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/mail"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/media"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/token"
)

type UserService struct {
	userRepo     repositories.UserRepository
	videoRepo    repositories.VideoRepository
	jwtService   *token.JWTService
	uploader     media.Uploader
	sessionCache *cache.SessionCache
	mailer       mail.Mailer
	logger       *slog.Logger
}

func NewUserService(
	userRepo repositories.UserRepository,
	videoRepo repositories.VideoRepository,
	jwtService *token.JWTService,
	uploader media.Uploader,
	sessionCache *cache.SessionCache,
	mailer mail.Mailer,
	logger *slog.Logger,
) interfaces.UserService {
	return &UserService{
		userRepo:     userRepo,
		videoRepo:    videoRepo,
		jwtService:   jwtService,
		uploader:     uploader,
		sessionCache: sessionCache,
		mailer:       mailer,
		logger:       logger,
	}
}

func (s *UserService) Register(ctx context.Context, cmd *command.RegisterUserCommand) (*command.RegisterUserCommandResult, error) {
	if strings.TrimSpace(cmd.Username) == "" || strings.TrimSpace(cmd.Email) == "" ||
		strings.TrimSpace(cmd.FullName) == "" || cmd.Password == "" {
		return nil, common.BadRequest("all fields are required")
	}
	if !entities.ValidEmail(strings.TrimSpace(cmd.Email)) {
		return nil, common.BadRequest("invalid email address")
	}

	// Check uniqueness before touching the media host.
	normalized := strings.ToLower(strings.TrimSpace(cmd.Username))
	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, normalized, strings.TrimSpace(cmd.Email))
	if err != nil {
		return nil, common.Internal("failed to check for existing user")
	}
	if exists {
		return nil, common.Conflict("user with email or username already exists")
	}

	if cmd.AvatarLocalPath == "" {
		return nil, common.BadRequest("avatar file is required")
	}

	// Upload both files first so the adapter cleans up every temp file,
	// then fail before any database write if the required avatar is missing.
	avatar, avatarErr := s.uploader.Upload(ctx, cmd.AvatarLocalPath)
	var coverImage *media.Asset
	if cmd.CoverImageLocalPath != "" {
		coverImage, _ = s.uploader.Upload(ctx, cmd.CoverImageLocalPath)
	}
	if avatarErr != nil || avatar == nil || avatar.URL == "" {
		return nil, common.BadRequest("avatar upload failed")
	}

	user := entities.NewUser(cmd.Username, cmd.Email, cmd.FullName, cmd.Password)
	user.Avatar = avatar.URL
	if coverImage != nil {
		user.CoverImage = coverImage.URL
	}

	validated, err := entities.NewValidatedUser(user)
	if err != nil {
		return nil, common.BadRequest(err.Error())
	}
	if err := validated.HashPassword(); err != nil {
		return nil, common.Internal("failed to secure password")
	}

	created, err := s.userRepo.Create(ctx, validated)
	if err != nil {
		return nil, common.Internal("there is a problem in user creation")
	}

	// Welcome mail is best effort.
	go func(email, fullName string) {
		if err := s.mailer.SendWelcome(email, fullName); err != nil {
			s.logger.Warn("failed to send welcome mail", "email", email, "error", err)
		}
	}(created.Email, created.FullName)

	return &command.RegisterUserCommandResult{User: mapper.NewUserResultFromEntity(created)}, nil
}

func (s *UserService) Login(ctx context.Context, cmd *command.LoginUserCommand) (*command.LoginUserCommandResult, error) {
	if cmd.Username == "" && cmd.Email == "" {
		return nil, common.BadRequest("username or email is required")
	}

	user, err := s.userRepo.FindByUsernameOrEmail(ctx, strings.ToLower(strings.TrimSpace(cmd.Username)), strings.TrimSpace(cmd.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NotFound("user not found")
		}
		return nil, common.Internal("failed to look up user")
	}

	if !user.CheckPassword(cmd.Password) {
		return nil, common.Unauthorized("password entered is wrong")
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	return &command.LoginUserCommandResult{
		User:         mapper.NewUserResultFromEntity(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// issueSession generates a token pair and rotates the stored refresh token,
// invalidating any prior session.
func (s *UserService) issueSession(ctx context.Context, user *entities.User) (*token.Pair, error) {
	pair, err := s.jwtService.GeneratePair(user)
	if err != nil {
		return nil, common.Internal("something went wrong while generating access and refresh token")
	}
	if err := s.userRepo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, common.Internal("failed to persist session")
	}

	// Cache for quick middleware validation; losing the write is harmless.
	go func(access, userID string) {
		if err := s.sessionCache.SetToken(context.Background(), access, userID, s.jwtService.AccessExpiry()); err != nil {
			s.logger.Warn("failed to cache access token", "error", err)
		}
	}(pair.AccessToken, user.ID.Hex())

	return pair, nil
}

func (s *UserService) Logout(ctx context.Context, userID primitive.ObjectID, accessToken string) error {
	// Unsetting an already-absent field succeeds, which keeps logout idempotent.
	if err := s.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		return common.Internal("failed to clear session")
	}
	if accessToken != "" {
		if err := s.sessionCache.DeleteToken(ctx, accessToken); err != nil {
			s.logger.Warn("failed to drop cached access token", "error", err)
		}
	}
	return nil
}

func (s *UserService) RefreshSession(ctx context.Context, cmd *command.RefreshSessionCommand) (*command.RefreshSessionCommandResult, error) {
	if cmd.RefreshToken == "" {
		return nil, common.Unauthorized("unauthorized request")
	}

	userID, err := s.jwtService.VerifyRefreshToken(cmd.RefreshToken)
	if err != nil {
		return nil, common.Unauthorized("invalid refresh token")
	}
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, common.Unauthorized("invalid refresh token")
	}

	user, err := s.userRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, common.Unauthorized("invalid refresh token")
	}

	// A mismatch means the presented token was already rotated out.
	if cmd.RefreshToken != user.RefreshToken {
		return nil, common.Unauthorized("refresh token is expired or already used")
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &command.RefreshSessionCommandResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID primitive.ObjectID, cmd *command.ChangePasswordCommand) error {
	if cmd.OldPassword == "" || cmd.NewPassword == "" {
		return common.BadRequest("old and new password are required")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return common.Unauthorized("account not found")
	}
	if !user.CheckPassword(cmd.OldPassword) {
		return common.BadRequest("invalid old password")
	}

	if err := user.SetPassword(cmd.NewPassword); err != nil {
		return common.BadRequest(err.Error())
	}
	// Only the hashed password changes; the refresh token stays valid.
	if err := s.userRepo.UpdatePassword(ctx, userID, user.Password); err != nil {
		return common.Internal("failed to update password")
	}
	return nil
}

func (s *UserService) UpdateAccountDetails(ctx context.Context, userID primitive.ObjectID, cmd *command.UpdateAccountCommand) (*command.UpdateAccountCommandResult, error) {
	if strings.TrimSpace(cmd.FullName) == "" || strings.TrimSpace(cmd.Email) == "" {
		return nil, common.BadRequest("all fields are required")
	}
	if !entities.ValidEmail(strings.TrimSpace(cmd.Email)) {
		return nil, common.BadRequest("invalid email address")
	}

	updated, err := s.userRepo.UpdateAccountDetails(ctx, userID, strings.TrimSpace(cmd.FullName), strings.TrimSpace(cmd.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NotFound("user not found")
		}
		return nil, common.Internal("failed to update account details")
	}
	return &command.UpdateAccountCommandResult{User: mapper.NewUserResultFromEntity(updated)}, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, localPath string) (*common.UserResult, error) {
	return s.updateImage(ctx, userID, localPath, "avatar", s.userRepo.UpdateAvatar)
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, localPath string) (*common.UserResult, error) {
	return s.updateImage(ctx, userID, localPath, "cover image", s.userRepo.UpdateCoverImage)
}

func (s *UserService) updateImage(
	ctx context.Context,
	userID primitive.ObjectID,
	localPath, kind string,
	persist func(context.Context, primitive.ObjectID, string) (*entities.User, error),
) (*common.UserResult, error) {
	if localPath == "" {
		return nil, common.BadRequest(kind + " file is missing")
	}

	// Upload failures abort before any database mutation.
	asset, err := s.uploader.Upload(ctx, localPath)
	if err != nil || asset == nil || asset.URL == "" {
		return nil, common.BadRequest("error while uploading the " + kind)
	}

	updated, err := persist(ctx, userID, asset.URL)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NotFound("user not found")
		}
		return nil, common.Internal("failed to update " + kind)
	}
	return mapper.NewUserResultFromEntity(updated), nil
}

func (s *UserService) ChannelProfile(ctx context.Context, username string, viewerID primitive.ObjectID) (*query.ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return nil, common.BadRequest("username is missing")
	}

	profile, err := s.userRepo.ChannelProfile(ctx, strings.ToLower(strings.TrimSpace(username)), viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NotFound("channel not found")
		}
		return nil, common.Internal("failed to load channel profile")
	}
	return profile, nil
}

func (s *UserService) WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]query.WatchHistoryEntry, error) {
	history, err := s.userRepo.WatchHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NotFound("user not found")
		}
		return nil, common.Internal("failed to load watch history")
	}
	return history, nil
}

func (s *UserService) RecordWatch(ctx context.Context, userID, videoID primitive.ObjectID) error {
	if _, err := s.videoRepo.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NotFound("video not found")
		}
		return common.Internal("failed to look up video")
	}
	if err := s.userRepo.AppendWatchHistory(ctx, userID, videoID); err != nil {
		return common.Internal("failed to record watch")
	}
	if err := s.videoRepo.IncrementViews(ctx, videoID); err != nil {
		s.logger.Warn("failed to increment view counter", "video", videoID.Hex(), "error", err)
	}
	return nil
}

func (s *UserService) FindUserByID(ctx context.Context, userID primitive.ObjectID) (*entities.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
