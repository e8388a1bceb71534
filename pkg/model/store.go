package model

import "context"

// Store persists a Bundle. Save writes both artifacts or neither; Load
// returns errs.ErrModelLoad for anything missing, corrupt or unpaired.
type Store interface {
	Save(ctx context.Context, b *Bundle) error
	Load(ctx context.Context) (*Bundle, error)
	Describe() string
}

// Ensure both implementations satisfy the interface
var _ Store = (*FileStore)(nil)  // File-based implementation
var _ Store = (*RedisStore)(nil) // Redis implementation
