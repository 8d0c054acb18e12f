package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/models"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facematch/internal/registry"
	"github.com/saturnino-fabrica-de-software/facematch/internal/service"
	"github.com/saturnino-fabrica-de-software/facematch/internal/storage"
	"github.com/saturnino-fabrica-de-software/facematch/internal/ws"
)

type readyModels struct{ ready bool }

func (m readyModels) Ready() bool { return m.ready }

func (m readyModels) Status() models.Status { return models.Status{Ready: m.ready} }

type noCamera struct{}

func (noCamera) Ready() bool { return false }

func (noCamera) Frame(context.Context) ([]byte, error) { return nil, domain.ErrCameraUnavailable }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, modelsReady bool) (*Router, storage.Store) {
	t.Helper()

	store := storage.NewMemoryStore()
	reg := registry.New(store, "users", testLogger())
	require.NoError(t, reg.Load(context.Background()))

	mdl := readyModels{ready: modelsReady}
	hub := ws.NewHub(testLogger())
	svc := service.NewFaceService(reg, mock.New(), noCamera{}, mdl, testLogger()).
		WithEvents(hub)

	router := NewRouter(testLogger(), &Dependencies{
		FaceService: svc,
		Models:      mdl,
		Camera:      noCamera{},
		Hub:         hub,
		RateLimit:   middleware.RateLimiterConfig{Max: 1000, Window: time.Minute},
	})
	router.Setup()
	t.Cleanup(func() { _ = router.Shutdown() })

	return router, store
}

func pngImage(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 8), B: uint8(y * 8), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, path, name string, img []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if name != "" {
		require.NoError(t, writer.WriteField("name", name))
	}
	if img != nil {
		part, err := writer.CreateFormFile("image", "face.png")
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, true)

	resp, err := router.App().Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	decode(t, resp, &result)
	assert.Equal(t, "ok", result["status"])
}

func TestRouter_ReadyFollowsModels(t *testing.T) {
	router, _ := newTestRouter(t, false)

	resp, err := router.App().Test(httptest.NewRequest("GET", "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestRouter_NotFound(t *testing.T) {
	router, _ := newTestRouter(t, true)

	resp, err := router.App().Test(httptest.NewRequest("GET", "/nonexistent", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRouter_RegisterMatchDelete(t *testing.T) {
	router, store := newTestRouter(t, true)
	app := router.App()
	alice := pngImage(t, 10)
	stranger := pngImage(t, 200)

	// check before anyone is registered
	resp, err := app.Test(multipartRequest(t, "/v1/match", "", alice), -1)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)

	// register
	resp, err = app.Test(multipartRequest(t, "/v1/users", "Alice", alice), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var reg domain.Registration
	decode(t, resp, &reg)
	assert.Equal(t, "Alice", reg.User)
	assert.Equal(t, 1, reg.Faces)

	raw, err := store.Get(context.Background(), "users")
	require.NoError(t, err)
	entries, dropped, err := registry.Decode(raw)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, entries, 1)
	assert.Equal(t, "Alice", entries[0].Label)

	// same image matches
	resp, err = app.Test(multipartRequest(t, "/v1/match", "", alice), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var match domain.MatchResult
	decode(t, resp, &match)
	assert.Equal(t, domain.MatchStatusFound, match.Status)
	assert.Equal(t, "Alice", match.MatchedUser)

	// a different image does not
	resp, err = app.Test(multipartRequest(t, "/v1/match", "", stranger), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	match = domain.MatchResult{}
	decode(t, resp, &match)
	assert.Equal(t, domain.MatchStatusNotFound, match.Status)
	assert.Empty(t, match.MatchedUser)

	// state reflects the last check
	resp, err = app.Test(httptest.NewRequest("GET", "/v1/state", nil), -1)
	require.NoError(t, err)
	var state domain.AppState
	decode(t, resp, &state)
	assert.Equal(t, domain.MatchStatusNotFound, state.MatchFound)
	assert.Equal(t, []string{"Alice"}, state.Users)
	assert.False(t, state.Loading)

	// delete
	resp, err = app.Test(httptest.NewRequest("DELETE", "/v1/users/Alice", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/users", nil), -1)
	require.NoError(t, err)
	var users struct {
		Users []string `json:"users"`
		Count int      `json:"count"`
	}
	decode(t, resp, &users)
	assert.Empty(t, users.Users)
	assert.Zero(t, users.Count)
}

func TestRouter_RegisterWithoutCamera(t *testing.T) {
	router, _ := newTestRouter(t, true)

	resp, err := router.App().Test(multipartRequest(t, "/v1/users", "Bob", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)

	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "CAMERA_UNAVAILABLE", body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestRouter_ModelsNotLoaded(t *testing.T) {
	router, _ := newTestRouter(t, false)

	resp, err := router.App().Test(multipartRequest(t, "/v1/users", "Alice", pngImage(t, 1)), -1)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestRouter_WebsocketRequiresUpgrade(t *testing.T) {
	router, _ := newTestRouter(t, true)

	resp, err := router.App().Test(httptest.NewRequest("GET", "/v1/ws", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)
}
