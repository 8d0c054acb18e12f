// Package storage provides the key-value stores that persist the user registry.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned when a key has never been written
	ErrNotFound = errors.New("storage: key not found")
	// ErrInvalidKey is returned for keys that cannot be mapped to the backend
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Store is the key-value capability the registry persists through.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Watcher is implemented by stores that can report external changes to a key.
type Watcher interface {
	Watch(ctx context.Context, key string, onChange func()) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
