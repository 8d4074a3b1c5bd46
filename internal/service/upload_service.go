package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"photopass/internal/config"
	"photopass/internal/domain"
	"photopass/internal/metrics"
	"photopass/internal/port"
)

// UploadInput is the DTO for a single parsed upload.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// UploadService defines the ingestion contract.
type UploadService interface {
	Upload(ctx context.Context, input UploadInput) (*domain.UploadResult, error)
}

type uploadService struct {
	storage port.ObjectStorage
	events  port.EventPublisher
	keys    *KeyGenerator
	s3cfg   *config.S3Config
	cfg     *config.UploadConfig
	metrics *metrics.Collector
}

// NewUploadService creates a new UploadService implementation. events and
// collector may be nil.
func NewUploadService(
	storage port.ObjectStorage,
	events port.EventPublisher,
	keys *KeyGenerator,
	s3cfg *config.S3Config,
	cfg *config.UploadConfig,
	collector *metrics.Collector,
) UploadService {
	return &uploadService{
		storage: storage,
		events:  events,
		keys:    keys,
		s3cfg:   s3cfg,
		cfg:     cfg,
		metrics: collector,
	}
}

func (s *uploadService) Upload(ctx context.Context, input UploadInput) (*domain.UploadResult, error) {
	if input.Body == nil {
		return nil, domain.ErrMissingFile
	}

	if input.Size > s.cfg.MaxBytes() {
		s.metrics.ObserveUpload("rejected", 0, 0)
		return nil, domain.WithDetails(domain.ErrFileTooLarge,
			fmt.Errorf("file is %d bytes, limit is %d bytes", input.Size, s.cfg.MaxBytes()))
	}

	contentType, err := resolveContentType(input)
	if err != nil {
		s.metrics.ObserveUpload("rejected", 0, 0)
		return nil, domain.WithDetails(domain.ErrFileUnreadable, err)
	}
	if s.cfg.EnforceImageType && !domain.IsImageContentType(contentType) {
		s.metrics.ObserveUpload("rejected", 0, 0)
		return nil, domain.WithDetails(domain.ErrUnsupportedFileType,
			fmt.Errorf("content type %q is not an image type", contentType))
	}

	key := s.keys.Next(input.Filename)
	bucket := s.s3cfg.UploadBucket

	log.Printf("uploadService.Upload: uploading %s as %s (%s, %d bytes)", input.Filename, key, contentType, input.Size)

	start := time.Now()
	out, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        input.Body,
		ContentType: contentType,
		Size:        input.Size,
	})
	if err != nil {
		log.Printf("uploadService.Upload: storage write failed for %s: %v", key, err)
		s.metrics.ObserveUpload("failed", 0, 0)
		return nil, domain.WithDetails(domain.ErrUploadFailed, err)
	}
	s.metrics.ObserveUpload("success", input.Size, time.Since(start))

	location := out.Location
	if location == "" {
		location = s.storage.ObjectURL(bucket, key)
	}

	s.publish(ctx, domain.UploadEvent{
		Key:          key,
		Bucket:       bucket,
		OriginalName: input.Filename,
		ContentType:  contentType,
		Size:         input.Size,
		URL:          location,
		UploadedAt:   time.Now().UTC(),
	})

	return &domain.UploadResult{
		OriginalName: input.Filename,
		Key:          key,
		URL:          location,
	}, nil
}

// publish announces the upload. Failures are logged only: the object is
// already stored and the converter can still discover it.
func (s *uploadService) publish(ctx context.Context, event domain.UploadEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishUploaded(ctx, event); err != nil {
		log.Printf("uploadService.Upload: publishing event for %s failed: %v", event.Key, err)
	}
}

// resolveContentType returns the declared content type, sniffing the first
// 512 bytes when the client declared nothing specific.
func resolveContentType(input UploadInput) (string, error) {
	declared := strings.TrimSpace(input.ContentType)
	if declared != "" && !strings.EqualFold(declared, "application/octet-stream") {
		return declared, nil
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(input.Body, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("reading file header: %w", err)
	}
	if _, err := input.Body.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seeking file: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}
