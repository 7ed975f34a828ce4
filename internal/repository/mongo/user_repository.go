package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devilbiswajit/VideoStream/internal/application/query"
	"github.com/devilbiswajit/VideoStream/internal/domain/entities"
	"github.com/devilbiswajit/VideoStream/internal/domain/repositories"
)

type UserRepository struct {
	users *mongo.Collection
}

func NewUserRepository(users *mongo.Collection) *UserRepository {
	return &UserRepository{users: users}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	doc := user.GetUser()
	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*entities.User, error) {
	var user entities.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func usernameOrEmailFilter(username, email string) (bson.M, bool) {
	var or []bson.M
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, false
	}
	return bson.M{"$or": or}, true
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entities.User, error) {
	filter, ok := usernameOrEmailFilter(username, email)
	if !ok {
		return nil, repositories.ErrNotFound
	}

	var user entities.User
	err := r.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	filter, ok := usernameOrEmailFilter(username, email)
	if !ok {
		return false, nil
	}
	count, err := r.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := r.users.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"refreshToken": token, "updatedAt": time.Now().UTC()},
	})
	return err
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	// $unset keeps absence distinguishable from an empty token value.
	_, err := r.users.UpdateByID(ctx, id, bson.M{
		"$unset": bson.M{"refreshToken": 1},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error {
	_, err := r.users.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"password": hashedPassword, "updatedAt": time.Now().UTC()},
	})
	return err
}

func (r *UserRepository) UpdateAccountDetails(ctx context.Context, id primitive.ObjectID, fullName, email string) (*entities.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"fullName": fullName, "email": email})
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id primitive.ObjectID, url string) (*entities.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"avatar": url})
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id primitive.ObjectID, url string) (*entities.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"coverImage": url})
}

func (r *UserRepository) findOneAndSet(ctx context.Context, id primitive.ObjectID, fields bson.M) (*entities.User, error) {
	fields["updatedAt"] = time.Now().UTC()

	var updated entities.User
	err := r.users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ChannelProfile joins the subscriptions collection twice: once for edges
// where the user is the channel, once where the user is the subscriber.
func (r *UserRepository) ChannelProfile(ctx context.Context, username string, viewerID primitive.ObjectID) (*query.ChannelProfile, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "subscriptions",
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "subscriptions",
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscriptions",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribersCount":   bson.M{"$size": "$subscribers"},
			"subscriptionsCount": bson.M{"$size": "$subscriptions"},
			// A zero viewer id matches no edge, so anonymous viewers get false.
			"isSubscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewerID, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"fullName":           1,
			"username":           1,
			"subscribersCount":   1,
			"subscriptionsCount": 1,
			"isSubscribed":       1,
			"avatar":             1,
			"coverImage":         1,
		}}},
	}

	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []query.ChannelProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &profiles[0], nil
}

// WatchHistory resolves the user's ordered video references with the owner
// projected to public fields. $lookup does not guarantee the order of the
// reference array, so results are reordered against the stored sequence.
func (r *UserRepository) WatchHistory(ctx context.Context, id primitive.ObjectID) ([]query.WatchHistoryEntry, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(user.WatchHistory) == 0 {
		return []query.WatchHistoryEntry{}, nil
	}

	videos := r.users.Database().Collection("videos")
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$in": user.WatchHistory}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "owner",
			"foreignField": "_id",
			"as":           "owner",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{
					"fullName":   1,
					"username":   1,
					"avatar":     1,
					"coverImage": 1,
				}},
			},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"owner": bson.M{"$first": "$owner"},
		}}},
	}

	cursor, err := videos.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []query.WatchHistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]query.WatchHistoryEntry, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
	}

	ordered := make([]query.WatchHistoryEntry, 0, len(user.WatchHistory))
	for _, videoID := range user.WatchHistory {
		if entry, ok := byID[videoID]; ok {
			ordered = append(ordered, entry)
		}
	}
	return ordered, nil
}

func (r *UserRepository) AppendWatchHistory(ctx context.Context, id, videoID primitive.ObjectID) error {
	_, err := r.users.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"watchHistory": videoID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	return err
}
