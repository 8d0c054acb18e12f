package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Source reads model assets relative to a base location.
type Source interface {
	// Read returns the content of name.
	Read(ctx context.Context, name string) ([]byte, error)
	// Check verifies that name exists without reading it.
	Check(ctx context.Context, name string) error
}

// NewSource picks an HTTP source for http(s) bases and a directory source otherwise.
func NewSource(base string) Source {
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return NewHTTPSource(base, &http.Client{Timeout: 30 * time.Second})
	}
	return DirSource{Dir: base}
}

// DirSource reads assets from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("asset %q escapes the model directory", name)
	}
	return filepath.Join(s.Dir, clean), nil
}

func (s DirSource) Read(_ context.Context, name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (s DirSource) Check(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("asset %q is a directory", name)
	}
	return nil
}

// HTTPSource reads assets from a static file server.
type HTTPSource struct {
	base   *url.URL
	raw    string
	client *http.Client
}

func NewHTTPSource(base string, client *http.Client) *HTTPSource {
	u, _ := url.Parse(base)
	return &HTTPSource{base: u, raw: base, client: client}
}

func (s *HTTPSource) url(name string) (string, error) {
	if s.base == nil {
		return "", fmt.Errorf("invalid model base URL %q", s.raw)
	}
	u := *s.base
	u.Path = path.Join("/", u.Path, name)
	return u.String(), nil
}

func (s *HTTPSource) do(ctx context.Context, method, name string) (*http.Response, error) {
	target, err := s.url(name)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", name, resp.StatusCode)
	}
	return resp, nil
}

func (s *HTTPSource) Read(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, name)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return io.ReadAll(resp.Body)
}

// Check issues a HEAD request; servers that reject HEAD are retried with GET.
func (s *HTTPSource) Check(ctx context.Context, name string) error {
	resp, err := s.do(ctx, http.MethodHead, name)
	if err == nil {
		_ = resp.Body.Close()
		return nil
	}
	resp, getErr := s.do(ctx, http.MethodGet, name)
	if getErr != nil {
		return errors.Join(err, getErr)
	}
	_ = resp.Body.Close()
	return nil
}
