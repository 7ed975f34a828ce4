package http

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devilbiswajit/VideoStream/internal/application/command"
	"github.com/devilbiswajit/VideoStream/internal/application/common"
	"github.com/devilbiswajit/VideoStream/internal/application/interfaces"
	"github.com/devilbiswajit/VideoStream/internal/application/mapper"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/ratelimit"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/token"
)

// UserHandler translates HTTP requests into service calls and wraps results
// in the response envelope.
type UserHandler struct {
	service      interfaces.UserService
	jwtService   *token.JWTService
	loginLimiter *ratelimit.KeyedLimiter
	tempDir      string
	logger       *slog.Logger
}

func NewUserHandler(
	service interfaces.UserService,
	jwtService *token.JWTService,
	loginLimiter *ratelimit.KeyedLimiter,
	tempDir string,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		service:      service,
		jwtService:   jwtService,
		loginLimiter: loginLimiter,
		tempDir:      tempDir,
		logger:       logger,
	}
}

func respond(c echo.Context, statusCode int, data interface{}, message string) error {
	return c.JSON(statusCode, common.NewApiResponse(statusCode, data, message))
}

// saveTempFile spools an uploaded part to the temp dir under a random name.
// The media adapter removes the file after the upload attempt.
func (h *UserHandler) saveTempFile(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(h.tempDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(h.tempDir, uuid.NewString()+filepath.Ext(file.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (h *UserHandler) Register(c echo.Context) error {
	cmd := &command.RegisterUserCommand{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		FullName: c.FormValue("fullName"),
		Password: c.FormValue("password"),
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		return common.BadRequest("avatar file is required")
	}
	avatarPath, err := h.saveTempFile(avatarFile)
	if err != nil {
		return common.Internal("failed to store uploaded avatar")
	}
	cmd.AvatarLocalPath = avatarPath

	if coverFile, err := c.FormFile("coverImage"); err == nil {
		coverPath, err := h.saveTempFile(coverFile)
		if err != nil {
			return common.Internal("failed to store uploaded cover image")
		}
		cmd.CoverImageLocalPath = coverPath
	}

	result, err := h.service.Register(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, result.User, "user registration successful")
}

func (h *UserHandler) Login(c echo.Context) error {
	if !h.loginLimiter.Allow(c.RealIP()) {
		return common.NewApiError(http.StatusTooManyRequests, "too many login attempts, slow down")
	}

	cmd := new(command.LoginUserCommand)
	if err := c.Bind(cmd); err != nil {
		return common.BadRequest("invalid request body")
	}

	result, err := h.service.Login(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	setAuthCookies(c, result.AccessToken, result.RefreshToken, h.jwtService.AccessExpiry(), h.jwtService.RefreshExpiry())
	return respond(c, http.StatusOK, result, "user logged in successfully")
}

func (h *UserHandler) Logout(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return common.Unauthorized("authentication required")
	}
	accessToken, _ := c.Get(accessTokenContextKey).(string)

	if err := h.service.Logout(c.Request().Context(), user.ID, accessToken); err != nil {
		return err
	}
	clearAuthCookies(c)
	return respond(c, http.StatusOK, struct{}{}, "user logged out successfully")
}

func (h *UserHandler) RefreshSession(c echo.Context) error {
	body := new(command.RefreshSessionCommand)
	// The body is optional when the cookie is present.
	_ = c.Bind(body)

	cmd := &command.RefreshSessionCommand{RefreshToken: extractRefreshToken(c, body.RefreshToken)}
	result, err := h.service.RefreshSession(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	setAuthCookies(c, result.AccessToken, result.RefreshToken, h.jwtService.AccessExpiry(), h.jwtService.RefreshExpiry())
	return respond(c, http.StatusOK, result, "access token refreshed")
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return common.Unauthorized("authentication required")
	}

	cmd := new(command.ChangePasswordCommand)
	if err := c.Bind(cmd); err != nil {
		return common.BadRequest("invalid request body")
	}
	if err := h.service.ChangePassword(c.Request().Context(), user.ID, cmd); err != nil {
		return err
	}
	return respond(c, http.StatusOK, struct{}{}, "password changed successfully")
}

func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return common.Unauthorized("authentication required")
	}
	return respond(c, http.StatusOK, mapper.NewUserResultFromEntity(user), "user fetched successfully")
}

func (h *UserHandler) UpdateAccountDetails(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return common.Unauthorized("authentication required")
	}

	cmd := new(command.UpdateAccountCommand)
	if err := c.Bind(cmd); err != nil {
		return common.BadRequest("invalid request body")
	}
	result, err := h.service.UpdateAccountDetails(c.Request().Context(), user.ID, cmd)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result.User, "account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", h.service.UpdateAvatar, "avatar updated successfully")
}

func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "coverImage", h.service.UpdateCoverImage, "cover image updated successfully")
}

func (h *UserHandler) updateImage(
	c echo.Context,
	field string,
	update func(ctx context.Context, userID primitive.ObjectID, localPath string) (*common.UserResult, error),
	message string,
) error {
	user, ok := CurrentUser(c)
	if !ok {
		return common.Unauthorized("authentication required")
	}

	file, err := c.FormFile(field)
	if err != nil {
		return common.BadRequest(field + " file is missing")
	}
	path, err := h.saveTempFile(file)
	if err != nil {
		return common.Internal("failed to store uploaded file")
	}

	result, err := update(c.Request().Context(), user.ID, path)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result, message)
}

func (h *UserHandler) GetChannelProfile(c echo.Context) error {
	username := c.Param("username")

	// The viewer is optional: a valid access token marks subscriptions,
	// anonymous lookups get isSubscribed=false.
	viewerID := primitive.NilObjectID
	if tokenString := extractAccessToken(c); tokenString != "" {
		if userID, err := h.jwtService.VerifyAccessToken(tokenString); err == nil {
			if oid, err := primitive.ObjectIDFromHex(userID); err == nil {
				viewerID = oid
			}
		}
	}

	profile, err := h.service.ChannelProfile(c.Request().Context(), username, viewerID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, profile, "channel info fetched successfully")
}

func (h *UserHandler) GetWatchHistory(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return common.Unauthorized("authentication required")
	}

	history, err := h.service.WatchHistory(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, history, "watch history fetched successfully")
}

func (h *UserHandler) RecordWatch(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return common.Unauthorized("authentication required")
	}

	videoID, err := primitive.ObjectIDFromHex(c.Param("videoId"))
	if err != nil {
		return common.BadRequest("invalid video id")
	}
	if err := h.service.RecordWatch(c.Request().Context(), user.ID, videoID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, struct{}{}, "watch recorded")
}

func (h *UserHandler) Health(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]string{"status": "ok"}, "service is healthy")
}
