package media

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var ErrMissingFile = errors.New("upload source file is missing")

// uploadAPI is the slice of the cloudinary SDK the adapter needs.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryUploader uploads local files with a per-call timeout and a
// bounded retry. The temporary file is always removed before returning.
type CloudinaryUploader struct {
	api     uploadAPI
	timeout time.Duration
	retries int
	logger  *slog.Logger
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret string, timeout time.Duration, retries int, logger *slog.Logger) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{
		api:     &cld.Upload,
		timeout: timeout,
		retries: retries,
		logger:  logger,
	}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, localPath string) (*Asset, error) {
	if localPath == "" {
		return nil, ErrMissingFile
	}
	// Cleanup is unconditional: one removal per invocation, success or not.
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			u.logger.Warn("failed to remove temporary upload file", "path", localPath, "error", err)
		}
	}()

	if _, err := os.Stat(localPath); err != nil {
		return nil, ErrMissingFile
	}

	var lastErr error
	for attempt := 0; attempt <= u.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, u.timeout)
		result, err := u.api.Upload(callCtx, localPath, uploader.UploadParams{ResourceType: "auto"})
		cancel()
		if err == nil {
			url := result.SecureURL
			if url == "" {
				url = result.URL
			}
			return &Asset{URL: url, PublicID: result.PublicID}, nil
		}
		lastErr = err
		u.logger.Warn("media upload attempt failed", "path", localPath, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}
