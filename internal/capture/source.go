package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Source produces camera frames. Open acquires the device once, Frame returns
// the current frame as encoded image bytes and Close releases the device.
type Source interface {
	Open(ctx context.Context) error
	Frame(ctx context.Context) ([]byte, error)
	Close() error
}

// ErrNoFrame is returned when the source has nothing to serve yet.
var ErrNoFrame = errors.New("no frame available")

// maxSnapshotSize caps a single snapshot download.
const maxSnapshotSize = 20 << 20

// SnapshotSource pulls frames from an HTTP snapshot endpoint, as exposed by IP
// cameras and mjpg-streamer (?action=snapshot).
type SnapshotSource struct {
	url    string
	client *http.Client
}

func NewSnapshotSource(url string, timeout time.Duration) *SnapshotSource {
	return &SnapshotSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Open grabs one frame to prove the camera answers.
func (s *SnapshotSource) Open(ctx context.Context) error {
	if _, err := s.Frame(ctx); err != nil {
		return fmt.Errorf("open snapshot camera: %w", err)
	}
	return nil
}

func (s *SnapshotSource) Frame(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch snapshot: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoFrame
	}
	return data, nil
}

func (s *SnapshotSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// DirectorySource serves the newest image in a directory that an external
// grabber (ffmpeg, fswebcam) keeps writing frames into.
type DirectorySource struct {
	dir string
}

func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{dir: dir}
}

func (s *DirectorySource) Open(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("open frame directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("open frame directory: %s is not a directory", s.dir)
	}
	return nil
}

func (s *DirectorySource) Frame(_ context.Context) ([]byte, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = e.Name()
			newestMod = info.ModTime()
		}
	}

	if newest == "" {
		return nil, ErrNoFrame
	}
	return os.ReadFile(filepath.Join(s.dir, newest))
}

func (s *DirectorySource) Close() error {
	return nil
}
