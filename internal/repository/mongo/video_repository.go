package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/devilbiswajit/VideoStream/internal/domain/entities"
	"github.com/devilbiswajit/VideoStream/internal/domain/repositories"
)

type VideoRepository struct {
	videos *mongo.Collection
}

func NewVideoRepository(videos *mongo.Collection) *VideoRepository {
	return &VideoRepository{videos: videos}
}

func (r *VideoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*entities.Video, error) {
	var video entities.Video
	err := r.videos.FindOne(ctx, bson.M{"_id": id}).Decode(&video)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *VideoRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.videos.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"views": 1}})
	return err
}
