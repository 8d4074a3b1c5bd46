package port

import "context"

// Prober checks whether the converted counterpart of an uploaded object exists.
type Prober interface {
	Exists(ctx context.Context, key string) (bool, error)
}
