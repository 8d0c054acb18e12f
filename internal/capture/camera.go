package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// Camera owns one Source for the process lifetime. A failed Start is logged
// and never retried; the camera then stays unavailable.
type Camera struct {
	source Source
	logger *slog.Logger

	mu    sync.RWMutex
	ready bool
	err   error
}

// NewCamera wraps source. A nil source yields a camera that is never ready.
func NewCamera(source Source, logger *slog.Logger) *Camera {
	return &Camera{source: source, logger: logger}
}

func (c *Camera) Start(ctx context.Context) {
	if c.source == nil {
		c.logger.Info("no camera configured")
		return
	}

	if err := c.source.Open(ctx); err != nil {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()

		c.logger.Error("camera unavailable", "error", err)
		return
	}

	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()

	c.logger.Info("camera ready")
}

func (c *Camera) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Err returns why Start failed, if it did.
func (c *Camera) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Frame returns the current frame or domain.ErrCameraUnavailable.
func (c *Camera) Frame(ctx context.Context) ([]byte, error) {
	if !c.Ready() {
		return nil, domain.ErrCameraUnavailable
	}

	frame, err := c.source.Frame(ctx)
	if err != nil {
		return nil, domain.ErrCameraUnavailable.WithError(fmt.Errorf("read frame: %w", err))
	}
	return frame, nil
}

// Close releases the source. The camera is unavailable afterwards.
func (c *Camera) Close() error {
	c.mu.Lock()
	wasReady := c.ready
	c.ready = false
	c.mu.Unlock()

	if c.source == nil || !wasReady {
		return nil
	}
	return c.source.Close()
}
