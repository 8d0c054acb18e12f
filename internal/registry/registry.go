// Package registry holds the named face descriptors and persists them as a
// single key-value blob.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/storage"
)

// DefaultKey is the storage key holding the registry.
const DefaultKey = "users"

// Registry is the ordered list of labeled descriptor sets.
// Every mutation rewrites the whole list to the store; the in-memory list is
// replaced only after the write succeeds.
type Registry struct {
	store  storage.Store
	key    string
	logger *slog.Logger

	mu      sync.RWMutex
	entries []domain.LabeledDescriptors
}

func New(store storage.Store, key string, logger *slog.Logger) *Registry {
	if key == "" {
		key = DefaultKey
	}
	return &Registry{
		store:   store,
		key:     key,
		logger:  logger,
		entries: []domain.LabeledDescriptors{},
	}
}

// Load replaces the in-memory registry with the stored one.
// Malformed content never fails the load: bad entries are dropped and an
// unreadable blob yields an empty registry. Only store errors are returned.
// The lock is held across the read so a concurrent Add or Delete is never
// overwritten by an older snapshot.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.store.Get(ctx, r.key)
	if errors.Is(err, storage.ErrNotFound) {
		data = nil
	} else if err != nil {
		return fmt.Errorf("load registry %s: %w", r.key, err)
	}

	entries, dropped, decodeErr := Decode(data)
	if decodeErr != nil {
		r.logger.Warn("stored registry is unreadable, starting empty",
			slog.String("key", r.key),
			slog.Any("error", decodeErr),
		)
	}
	if dropped > 0 {
		r.logger.Warn("dropped malformed registry entries",
			slog.String("key", r.key),
			slog.Int("dropped", dropped),
		)
	}

	r.entries = entries

	r.logger.Debug("registry loaded",
		slog.String("key", r.key),
		slog.Int("entries", len(entries)),
	)
	return nil
}

// Reload re-reads the registry, e.g. after another process rewrote it.
func (r *Registry) Reload(ctx context.Context) error {
	return r.Load(ctx)
}

// Entries returns a copy of the registry in insertion order.
func (r *Registry) Entries() []domain.LabeledDescriptors {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.LabeledDescriptors, len(r.entries))
	copy(out, r.entries)
	return out
}

// Names returns the label of every entry in order, duplicates included.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Label
	}
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Add appends one entry holding all descriptors under name and persists the
// full registry.
func (r *Registry) Add(ctx context.Context, name string, descriptors []domain.Descriptor) (domain.LabeledDescriptors, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.LabeledDescriptors{}, domain.ErrNameRequired
	}
	if len(descriptors) == 0 {
		return domain.LabeledDescriptors{}, domain.ErrNoFaceDetected
	}

	entry := domain.LabeledDescriptors{
		Label:       name,
		Descriptors: append([]domain.Descriptor(nil), descriptors...),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]domain.LabeledDescriptors, 0, len(r.entries)+1)
	next = append(next, r.entries...)
	next = append(next, entry)

	if err := r.persist(ctx, next); err != nil {
		return domain.LabeledDescriptors{}, err
	}
	r.entries = next

	return entry, nil
}

// Delete removes every entry labeled name, keeping the order of the rest.
// It returns the number of removed entries. Names are trimmed as in Add.
func (r *Registry) Delete(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]domain.LabeledDescriptors, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Label != name {
			next = append(next, e)
		}
	}

	removed := len(r.entries) - len(next)
	if removed == 0 {
		return 0, domain.ErrUserNotFound
	}

	if err := r.persist(ctx, next); err != nil {
		return 0, err
	}
	r.entries = next

	return removed, nil
}

func (r *Registry) persist(ctx context.Context, entries []domain.LabeledDescriptors) error {
	data, err := Encode(entries)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save registry %s: %w", r.key, err)
	}
	return nil
}
