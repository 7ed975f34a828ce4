package media

import "context"

// Asset describes a stored media object on the external host.
type Asset struct {
	URL      string
	PublicID string
}

// Uploader sends a local temporary file to the media host and returns the
// durable asset. Implementations must remove the local file exactly once per
// invocation, whether or not the upload succeeds.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (*Asset, error)
}
