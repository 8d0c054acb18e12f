package models

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Status is a snapshot of the loader.
type Status struct {
	Ready  bool     `json:"ready"`
	Loaded []string `json:"loaded"`
	Failed string   `json:"failed,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Loader verifies the model assets once at startup. It never retries: a
// failed run leaves the loader not ready for the lifetime of the process.
type Loader struct {
	source Source
	specs  []Spec
	logger *slog.Logger

	mu     sync.RWMutex
	loaded []string
	failed string
	err    error
	ready  bool
}

func NewLoader(source Source, specs []Spec, logger *slog.Logger) *Loader {
	return &Loader{
		source: source,
		specs:  specs,
		logger: logger,
	}
}

// Load walks the models in order and stops at the first failure. The error
// is logged and also returned for callers such as the CLI that want it.
func (l *Loader) Load(ctx context.Context) error {
	start := time.Now()

	l.mu.Lock()
	l.loaded = nil
	l.failed = ""
	l.err = nil
	l.ready = false
	l.mu.Unlock()

	for _, spec := range l.specs {
		if err := l.loadOne(ctx, spec); err != nil {
			err = fmt.Errorf("load model %s: %w", spec.Name, err)

			l.mu.Lock()
			l.failed = spec.Name
			l.err = err
			l.mu.Unlock()

			l.logger.Error("model loading failed",
				"model", spec.Name,
				"error", err,
			)
			return err
		}

		l.mu.Lock()
		l.loaded = append(l.loaded, spec.Name)
		l.mu.Unlock()

		l.logger.Debug("model loaded", "model", spec.Name)
	}

	l.mu.Lock()
	l.ready = true
	l.mu.Unlock()

	l.logger.Info("models loaded",
		"count", len(l.specs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (l *Loader) loadOne(ctx context.Context, spec Spec) error {
	data, err := l.source.Read(ctx, spec.Manifest)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	groups, err := ParseManifest(data)
	if err != nil {
		return err
	}

	for _, shard := range Shards(groups) {
		if err := l.source.Check(ctx, shard); err != nil {
			return fmt.Errorf("shard %s: %w", shard, err)
		}
	}
	return nil
}

// Ready reports whether every model loaded.
func (l *Loader) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}

// Err returns the failure of the last run, if any.
func (l *Loader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Status{
		Ready:  l.ready,
		Loaded: append([]string{}, l.loaded...),
		Failed: l.failed,
	}
	if l.err != nil {
		s.Error = l.err.Error()
	}
	return s
}
