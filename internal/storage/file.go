package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	fileExtension   = ".json"
	defaultDebounce = 250 * time.Millisecond
)

// FileStore keeps one file per key under a directory.
// Writes go through a temp file and rename so readers never see partial data.
type FileStore struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger
}

// FileStoreOption configures a FileStore
type FileStoreOption func(*FileStore)

// WithDebounce sets how long Watch waits for writes to settle before firing.
func WithDebounce(d time.Duration) FileStoreOption {
	return func(s *FileStore) { s.debounce = d }
}

// WithLogger sets the logger used by Watch.
func WithLogger(l *slog.Logger) FileStoreOption {
	return func(s *FileStore) { s.logger = l }
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}

	s := &FileStore{
		dir:      dir,
		debounce: defaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExtension)
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write key %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync key %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close key %s: %w", key, err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("rename key %s: %w", key, err)
	}
	return nil
}

// Watch calls onChange whenever the file backing key is written or replaced
// by anyone, including this process. It returns once the watch is installed
// and stops when ctx is cancelled.
func (s *FileStore) Watch(ctx context.Context, key string, onChange func()) error {
	if err := validateKey(key); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// The directory is watched rather than the file: atomic renames replace the inode.
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	target := s.path(key)
	go s.watchLoop(ctx, watcher, target, onChange)
	return nil
}

func (s *FileStore) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string, onChange func()) {
	defer func() {
		_ = watcher.Close()
	}()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(s.debounce, onChange)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				s.logger.Debug("registry file changed",
					slog.String("path", ev.Name),
					slog.String("op", ev.Op.String()),
				)
				fire()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("storage watcher error", slog.Any("error", err))
		}
	}
}

var (
	_ Store   = (*FileStore)(nil)
	_ Watcher = (*FileStore)(nil)
)
