package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"photopass/internal/config"
	"photopass/internal/port"
)

// objectAPI is the subset of *minio.Client used by minioClient.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

type minioClient struct {
	client  objectAPI
	baseURL string
}

// NewMinioClient creates an ObjectStorage backed by an S3-compatible server
// reached through minio-go.
func NewMinioClient(s3cfg *config.S3Config, cfg *config.MinioConfig) (port.ObjectStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s3cfg.AccessKey, s3cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: s3cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing minio client: %w", err)
	}
	return &minioClient{
		client:  client,
		baseURL: strings.TrimRight(client.EndpointURL().String(), "/"),
	}, nil
}

func (c *minioClient) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	size := input.Size
	if size <= 0 {
		size = -1
	}
	info, err := c.client.PutObject(ctx, input.Bucket, input.Key, input.Body, size, minio.PutObjectOptions{
		ContentType: input.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("minio upload: %w", err)
	}

	location := info.Location
	if location == "" {
		location = c.ObjectURL(input.Bucket, input.Key)
	}
	return &port.UploadOutput{
		Location: location,
		ETag:     info.ETag,
	}, nil
}

func (c *minioClient) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("minio stat: %w", err)
}

func (c *minioClient) ObjectURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, bucket, url.PathEscape(key))
}

func (c *minioClient) Ping(ctx context.Context, bucket string) error {
	ok, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("minio bucket exists: %w", err)
	}
	if !ok {
		return fmt.Errorf("minio bucket %q does not exist", bucket)
	}
	return nil
}
