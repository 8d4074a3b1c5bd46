package noop

import (
	"context"
	"log"

	"photopass/internal/domain"
	"photopass/internal/port"
)

type noopPublisher struct{}

// NewNoopPublisher creates an EventPublisher that only logs upload events.
func NewNoopPublisher() port.EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) PublishUploaded(_ context.Context, event domain.UploadEvent) error {
	log.Printf("[NOOP EVENT] uploaded %s to %s (%s, %d bytes)", event.Key, event.Bucket, event.ContentType, event.Size)
	return nil
}

func (noopPublisher) Close() error { return nil }
