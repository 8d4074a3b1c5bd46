package port

import (
	"context"

	"photopass/internal/domain"
)

// EventPublisher announces newly stored uploads to downstream consumers.
type EventPublisher interface {
	PublishUploaded(ctx context.Context, event domain.UploadEvent) error
	Close() error
}
