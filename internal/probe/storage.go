package probe

import (
	"context"

	"photopass/internal/port"
)

// StorageProber checks the converted bucket through the object store client,
// which works for private buckets.
type StorageProber struct {
	storage port.ObjectStorage
	bucket  string
}

// NewStorageProber creates a prober over bucket.
func NewStorageProber(storage port.ObjectStorage, bucket string) *StorageProber {
	return &StorageProber{storage: storage, bucket: bucket}
}

func (p *StorageProber) Exists(ctx context.Context, key string) (bool, error) {
	return p.storage.Exists(ctx, p.bucket, key)
}

var _ port.Prober = (*StorageProber)(nil)
