// Package storage provides the key-value persistence used for calculator
// history and settings.
package storage

import "context"

// Store is the interface for key-value persistence.
//
// Values are opaque to the store; callers encode and decode them.
type Store interface {
	// Get retrieves the value for key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores the value for key, overwriting if it exists.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources.
	Close() error
}
