package port

import (
	"context"
	"io"
)

// UploadInput encapsulates the parameters needed to upload an object.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput contains the result of a successful upload.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts cloud object storage operations. Implementations
// are safe for concurrent use and are shared across requests.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	// Exists reports whether an object is present without fetching its body.
	Exists(ctx context.Context, bucket, key string) (bool, error)
	// ObjectURL returns the canonical URL of an object.
	ObjectURL(bucket, key string) string
	// Ping checks that the bucket is reachable with the configured credentials.
	Ping(ctx context.Context, bucket string) error
}
