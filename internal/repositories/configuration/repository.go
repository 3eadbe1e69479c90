package configuration

import "context"

// Repository stores named runtime options.
type Repository interface {
	// Get returns common.ErrorNotFound when key is not set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
