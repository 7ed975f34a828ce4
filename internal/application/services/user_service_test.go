package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devilbiswajit/VideoStream/internal/application/command"
	"github.com/devilbiswajit/VideoStream/internal/application/common"
	"github.com/devilbiswajit/VideoStream/internal/application/interfaces"
	"github.com/devilbiswajit/VideoStream/internal/application/query"
	"github.com/devilbiswajit/VideoStream/internal/domain/entities"
	"github.com/devilbiswajit/VideoStream/internal/domain/repositories"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/cache"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/media"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/token"
)

// --- in-memory fakes ---

type fixture struct {
	mu     sync.Mutex
	users  map[primitive.ObjectID]*entities.User
	videos map[primitive.ObjectID]*entities.Video
	subs   []entities.Subscription
}

func newFixture() *fixture {
	return &fixture{
		users:  make(map[primitive.ObjectID]*entities.User),
		videos: make(map[primitive.ObjectID]*entities.Video),
	}
}

type fakeUserRepo struct{ fx *fixture }

func (r *fakeUserRepo) Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	r.fx.mu.Lock()
	defer r.fx.mu.Unlock()
	doc := *user.GetUser()
	doc.ID = primitive.NewObjectID()
	r.fx.users[doc.ID] = &doc
	dup := doc
	return &dup, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*entities.User, error) {
	r.fx.mu.Lock()
	defer r.fx.mu.Unlock()
	user, ok := r.fx.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	dup := *user
	return &dup, nil
}

func (r *fakeUserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entities.User, error) {
	r.fx.mu.Lock()
	defer r.fx.mu.Unlock()
	for _, user := range r.fx.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			dup := *user
			return &dup, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	_, err := r.FindByUsernameOrEmail(ctx, username, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeUserRepo) mutate(id primitive.ObjectID, fn func(*entities.User)) (*entities.User, error) {
	r.fx.mu.Lock()
	defer r.fx.mu.Unlock()
	user, ok := r.fx.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	fn(user)
	dup := *user
	return &dup, nil
}

func (r *fakeUserRepo) SetRefreshToken(ctx context.Context, id primitive.ObjectID, tok string) error {
	_, err := r.mutate(id, func(u *entities.User) { u.RefreshToken = tok })
	return err
}

func (r *fakeUserRepo) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.mutate(id, func(u *entities.User) { u.RefreshToken = "" })
	return err
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hashed string) error {
	_, err := r.mutate(id, func(u *entities.User) { u.Password = hashed })
	return err
}

func (r *fakeUserRepo) UpdateAccountDetails(ctx context.Context, id primitive.ObjectID, fullName, email string) (*entities.User, error) {
	return r.mutate(id, func(u *entities.User) {
		u.FullName = fullName
		u.Email = email
	})
}

func (r *fakeUserRepo) UpdateAvatar(ctx context.Context, id primitive.ObjectID, url string) (*entities.User, error) {
	return r.mutate(id, func(u *entities.User) { u.Avatar = url })
}

func (r *fakeUserRepo) UpdateCoverImage(ctx context.Context, id primitive.ObjectID, url string) (*entities.User, error) {
	return r.mutate(id, func(u *entities.User) { u.CoverImage = url })
}

func (r *fakeUserRepo) ChannelProfile(ctx context.Context, username string, viewerID primitive.ObjectID) (*query.ChannelProfile, error) {
	r.fx.mu.Lock()
	defer r.fx.mu.Unlock()
	for _, user := range r.fx.users {
		if user.Username != username {
			continue
		}
		profile := &query.ChannelProfile{
			Username:   user.Username,
			FullName:   user.FullName,
			Avatar:     user.Avatar,
			CoverImage: user.CoverImage,
		}
		for _, sub := range r.fx.subs {
			if sub.Channel == user.ID {
				profile.SubscribersCount++
				if sub.Subscriber == viewerID {
					profile.IsSubscribed = true
				}
			}
			if sub.Subscriber == user.ID {
				profile.SubscriptionsCount++
			}
		}
		return profile, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) WatchHistory(ctx context.Context, id primitive.ObjectID) ([]query.WatchHistoryEntry, error) {
	r.fx.mu.Lock()
	defer r.fx.mu.Unlock()
	user, ok := r.fx.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	entries := make([]query.WatchHistoryEntry, 0, len(user.WatchHistory))
	for _, videoID := range user.WatchHistory {
		video, ok := r.fx.videos[videoID]
		if !ok {
			continue
		}
		entry := query.WatchHistoryEntry{
			ID:          video.ID,
			Title:       video.Title,
			Description: video.Description,
			VideoFile:   video.VideoFile,
			Thumbnail:   video.Thumbnail,
			Duration:    video.Duration,
			Views:       video.Views,
			IsPublished: video.IsPublished,
		}
		if owner, ok := r.fx.users[video.Owner]; ok {
			entry.Owner = query.VideoOwner{
				Username:   owner.Username,
				FullName:   owner.FullName,
				Avatar:     owner.Avatar,
				CoverImage: owner.CoverImage,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *fakeUserRepo) AppendWatchHistory(ctx context.Context, id, videoID primitive.ObjectID) error {
	_, err := r.mutate(id, func(u *entities.User) { u.WatchHistory = append(u.WatchHistory, videoID) })
	return err
}

type fakeVideoRepo struct{ fx *fixture }

func (r *fakeVideoRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*entities.Video, error) {
	r.fx.mu.Lock()
	defer r.fx.mu.Unlock()
	video, ok := r.fx.videos[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	dup := *video
	return &dup, nil
}

func (r *fakeVideoRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	r.fx.mu.Lock()
	defer r.fx.mu.Unlock()
	video, ok := r.fx.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	return nil
}

type fakeUploader struct {
	mu        sync.Mutex
	uploaded  []string
	failPaths map[string]bool
}

func (u *fakeUploader) Upload(ctx context.Context, localPath string) (*media.Asset, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if localPath == "" {
		return nil, media.ErrMissingFile
	}
	u.uploaded = append(u.uploaded, localPath)
	if u.failPaths[localPath] {
		return nil, errors.New("upload rejected")
	}
	return &media.Asset{URL: "https://cdn.example/" + localPath, PublicID: localPath}, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) SendWelcome(toEmail, fullName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail)
	return nil
}

// --- harness ---

type env struct {
	fx       *fixture
	svc      interfaces.UserService
	jwt      *token.JWTService
	uploader *fakeUploader
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fx := newFixture()
	uploader := &fakeUploader{failPaths: make(map[string]bool)}
	jwt := token.NewJWTService("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	svc := NewUserService(
		&fakeUserRepo{fx: fx},
		&fakeVideoRepo{fx: fx},
		jwt,
		uploader,
		cache.NewSessionCache(nil),
		&fakeMailer{},
		slog.New(slog.NewTextHandler(os.Stderr, nil)),
	)
	return &env{fx: fx, svc: svc, jwt: jwt, uploader: uploader}
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *common.ApiError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.StatusCode
}

func registerAna(t *testing.T, e *env) *common.UserResult {
	t.Helper()
	result, err := e.svc.Register(context.Background(), &command.RegisterUserCommand{
		Username:        "Ana",
		Email:           "ana@x.com",
		FullName:        "Ana Lee",
		Password:        "Secret123",
		AvatarLocalPath: "tmp/avatar.png",
	})
	require.NoError(t, err)
	return result.User
}

// --- tests ---

func TestRegisterStoresLowercasedUserWithHashedPassword(t *testing.T) {
	e := newEnv(t)
	user := registerAna(t, e)

	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, "https://cdn.example/tmp/avatar.png", user.Avatar)

	oid, err := primitive.ObjectIDFromHex(user.ID)
	require.NoError(t, err)
	stored := e.fx.users[oid]
	require.NotNil(t, stored)
	assert.NotEqual(t, "Secret123", stored.Password)
	assert.True(t, stored.CheckPassword("Secret123"))
}

func TestRegisterResponseNeverCarriesSecrets(t *testing.T) {
	e := newEnv(t)
	user := registerAna(t, e)

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "refreshToken")
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	e := newEnv(t)
	registerAna(t, e)

	for _, cmd := range []*command.RegisterUserCommand{
		{Username: "ana", Email: "other@x.com", FullName: "Other", Password: "pw", AvatarLocalPath: "tmp/a.png"},
		{Username: "other", Email: "ana@x.com", FullName: "Other", Password: "pw", AvatarLocalPath: "tmp/a.png"},
	} {
		_, err := e.svc.Register(context.Background(), cmd)
		assert.Equal(t, http.StatusConflict, apiStatus(t, err))
	}
	assert.Len(t, e.fx.users, 1)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Register(context.Background(), &command.RegisterUserCommand{
		Username: "", Email: "ana@x.com", FullName: "Ana", Password: "pw", AvatarLocalPath: "tmp/a.png",
	})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	_, err = e.svc.Register(context.Background(), &command.RegisterUserCommand{
		Username: "ana", Email: "not-an-email", FullName: "Ana", Password: "pw", AvatarLocalPath: "tmp/a.png",
	})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	// required avatar missing
	_, err = e.svc.Register(context.Background(), &command.RegisterUserCommand{
		Username: "ana", Email: "ana@x.com", FullName: "Ana", Password: "pw",
	})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	assert.Empty(t, e.fx.users)
}

func TestRegisterAbortsBeforePersistWhenAvatarUploadFails(t *testing.T) {
	e := newEnv(t)
	e.uploader.failPaths["tmp/broken.png"] = true

	_, err := e.svc.Register(context.Background(), &command.RegisterUserCommand{
		Username:            "ana",
		Email:               "ana@x.com",
		FullName:            "Ana Lee",
		Password:            "Secret123",
		AvatarLocalPath:     "tmp/broken.png",
		CoverImageLocalPath: "tmp/cover.png",
	})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	assert.Empty(t, e.fx.users)
	// the cover file still went through the adapter so its temp copy is reaped
	assert.Contains(t, e.uploader.uploaded, "tmp/cover.png")
}

func TestLoginRoundTrip(t *testing.T) {
	e := newEnv(t)
	created := registerAna(t, e)

	result, err := e.svc.Login(context.Background(), &command.LoginUserCommand{Username: "ana", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, result.User.ID)

	accessID, err := e.jwt.VerifyAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, accessID)

	refreshID, err := e.jwt.VerifyRefreshToken(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, refreshID)

	// login by email works too
	_, err = e.svc.Login(context.Background(), &command.LoginUserCommand{Email: "ana@x.com", Password: "Secret123"})
	assert.NoError(t, err)
}

func TestLoginFailures(t *testing.T) {
	e := newEnv(t)
	registerAna(t, e)

	_, err := e.svc.Login(context.Background(), &command.LoginUserCommand{Username: "ana", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))

	_, err = e.svc.Login(context.Background(), &command.LoginUserCommand{Username: "ghost", Password: "Secret123"})
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))

	_, err = e.svc.Login(context.Background(), &command.LoginUserCommand{Password: "Secret123"})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
}

func TestRefreshRotation(t *testing.T) {
	e := newEnv(t)
	registerAna(t, e)

	login, err := e.svc.Login(context.Background(), &command.LoginUserCommand{Username: "ana", Password: "Secret123"})
	require.NoError(t, err)

	rotated, err := e.svc.RefreshSession(context.Background(), &command.RefreshSessionCommand{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, rotated.RefreshToken)

	// the superseded token is rejected
	_, err = e.svc.RefreshSession(context.Background(), &command.RefreshSessionCommand{RefreshToken: login.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))

	// the freshly issued one keeps working
	_, err = e.svc.RefreshSession(context.Background(), &command.RefreshSessionCommand{RefreshToken: rotated.RefreshToken})
	assert.NoError(t, err)
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	e := newEnv(t)
	registerAna(t, e)

	_, err := e.svc.RefreshSession(context.Background(), &command.RefreshSessionCommand{})
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))

	_, err = e.svc.RefreshSession(context.Background(), &command.RefreshSessionCommand{RefreshToken: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))

	// a valid token for a deleted account is rejected
	ghost := entities.NewUser("ghost", "ghost@x.com", "Ghost", "pw")
	ghost.ID = primitive.NewObjectID()
	refresh, err := e.jwt.GenerateRefreshToken(ghost)
	require.NoError(t, err)
	_, err = e.svc.RefreshSession(context.Background(), &command.RefreshSessionCommand{RefreshToken: refresh})
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))
}

func TestLogoutIsIdempotent(t *testing.T) {
	e := newEnv(t)
	created := registerAna(t, e)
	oid, _ := primitive.ObjectIDFromHex(created.ID)

	_, err := e.svc.Login(context.Background(), &command.LoginUserCommand{Username: "ana", Password: "Secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, e.fx.users[oid].RefreshToken)

	require.NoError(t, e.svc.Logout(context.Background(), oid, ""))
	assert.Empty(t, e.fx.users[oid].RefreshToken)
	require.NoError(t, e.svc.Logout(context.Background(), oid, ""))
	assert.Empty(t, e.fx.users[oid].RefreshToken)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	created := registerAna(t, e)
	oid, _ := primitive.ObjectIDFromHex(created.ID)

	login, err := e.svc.Login(context.Background(), &command.LoginUserCommand{Username: "ana", Password: "Secret123"})
	require.NoError(t, err)
	storedRefresh := e.fx.users[oid].RefreshToken

	err = e.svc.ChangePassword(context.Background(), oid, &command.ChangePasswordCommand{OldPassword: "wrong", NewPassword: "Another456"})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	require.NoError(t, e.svc.ChangePassword(context.Background(), oid, &command.ChangePasswordCommand{OldPassword: "Secret123", NewPassword: "Another456"}))

	// the session survives a password change
	assert.Equal(t, storedRefresh, e.fx.users[oid].RefreshToken)
	_, err = e.svc.RefreshSession(context.Background(), &command.RefreshSessionCommand{RefreshToken: login.RefreshToken})
	assert.NoError(t, err)

	_, err = e.svc.Login(context.Background(), &command.LoginUserCommand{Username: "ana", Password: "Secret123"})
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err))
	_, err = e.svc.Login(context.Background(), &command.LoginUserCommand{Username: "ana", Password: "Another456"})
	assert.NoError(t, err)
}

func TestUpdateAccountAndImages(t *testing.T) {
	e := newEnv(t)
	created := registerAna(t, e)
	oid, _ := primitive.ObjectIDFromHex(created.ID)

	updated, err := e.svc.UpdateAccountDetails(context.Background(), oid, &command.UpdateAccountCommand{FullName: "Ana L.", Email: "ana.lee@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ana L.", updated.User.FullName)

	_, err = e.svc.UpdateAccountDetails(context.Background(), oid, &command.UpdateAccountCommand{FullName: "", Email: "ana@x.com"})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	avatar, err := e.svc.UpdateAvatar(context.Background(), oid, "tmp/new-avatar.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/tmp/new-avatar.png", avatar.Avatar)

	// a failed upload leaves the stored value untouched
	e.uploader.failPaths["tmp/bad.png"] = true
	_, err = e.svc.UpdateAvatar(context.Background(), oid, "tmp/bad.png")
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	assert.Equal(t, "https://cdn.example/tmp/new-avatar.png", e.fx.users[oid].Avatar)

	cover, err := e.svc.UpdateCoverImage(context.Background(), oid, "tmp/cover.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/tmp/cover.png", cover.CoverImage)
}

func TestChannelProfileSubscriptionFlag(t *testing.T) {
	e := newEnv(t)
	channel := registerAna(t, e)
	channelID, _ := primitive.ObjectIDFromHex(channel.ID)

	viewer := primitive.NewObjectID()
	other := primitive.NewObjectID()
	e.fx.subs = append(e.fx.subs,
		entities.Subscription{Subscriber: viewer, Channel: channelID},
		entities.Subscription{Subscriber: other, Channel: channelID},
		entities.Subscription{Subscriber: channelID, Channel: other},
	)

	profile, err := e.svc.ChannelProfile(context.Background(), "ana", viewer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.SubscribersCount)
	assert.Equal(t, int64(1), profile.SubscriptionsCount)
	assert.True(t, profile.IsSubscribed)

	anonymous, err := e.svc.ChannelProfile(context.Background(), "ana", primitive.NilObjectID)
	require.NoError(t, err)
	assert.False(t, anonymous.IsSubscribed)

	stranger, err := e.svc.ChannelProfile(context.Background(), "ana", primitive.NewObjectID())
	require.NoError(t, err)
	assert.False(t, stranger.IsSubscribed)

	_, err = e.svc.ChannelProfile(context.Background(), "nobody", viewer)
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))

	_, err = e.svc.ChannelProfile(context.Background(), "  ", viewer)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
}

func TestWatchHistoryOrderAndOwnerProjection(t *testing.T) {
	e := newEnv(t)
	created := registerAna(t, e)
	oid, _ := primitive.ObjectIDFromHex(created.ID)

	owner := entities.NewUser("bob", "bob@x.com", "Bob Ray", "pw")
	owner.ID = primitive.NewObjectID()
	owner.Avatar = "https://cdn.example/bob.png"
	e.fx.users[owner.ID] = owner

	var ids []primitive.ObjectID
	for _, title := range []string{"first", "second", "third"} {
		video := &entities.Video{ID: primitive.NewObjectID(), Owner: owner.ID, Title: title, IsPublished: true}
		e.fx.videos[video.ID] = video
		ids = append(ids, video.ID)
	}

	// watch third, then first
	require.NoError(t, e.svc.RecordWatch(context.Background(), oid, ids[2]))
	require.NoError(t, e.svc.RecordWatch(context.Background(), oid, ids[0]))

	history, err := e.svc.WatchHistory(context.Background(), oid)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "third", history[0].Title)
	assert.Equal(t, "first", history[1].Title)
	assert.Equal(t, "bob", history[0].Owner.Username)
	assert.Equal(t, "https://cdn.example/bob.png", history[0].Owner.Avatar)

	assert.Equal(t, int64(1), e.fx.videos[ids[2]].Views)

	err = e.svc.RecordWatch(context.Background(), oid, primitive.NewObjectID())
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
}
