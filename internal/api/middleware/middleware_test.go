package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

func decodeError(t *testing.T, body io.Reader) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", domain.ErrUserNotFound, 404, "USER_NOT_FOUND"},
		{"wrapped app error", domain.ErrDetectionFailed.WithError(errors.New("timeout")), 502, "DETECTION_FAILED"},
		{"fiber error", fiber.ErrMethodNotAllowed, 405, "HTTP_ERROR"},
		{"unknown error", errors.New("boom"), 500, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(discardLogger())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeError(t, resp.Body)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Empty(t, body.Error.RequestID)
		})
	}
}

func TestErrorHandler_RequestID(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(discardLogger())})
	app.Use(requestid.New())
	app.Get("/", func(c *fiber.Ctx) error { return domain.ErrNameRequired })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-123")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)

	body := decodeError(t, resp.Body)
	assert.Equal(t, "NAME_REQUIRED", body.Error.Code)
	assert.Equal(t, "req-123", body.Error.RequestID)
}

func TestRecover(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(discardLogger())})
	app.Use(Recover(discardLogger()))
	app.Get("/", func(c *fiber.Ctx) error {
		panic("something broke")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp.Body).Error.Code)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(discardLogger())})
	app.Use(requestid.New())
	app.Use(Logger(logger))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("OK") })
	app.Get("/missing", func(c *fiber.Ctx) error { return domain.ErrUserNotFound })

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, float64(200), first["status"])
	assert.NotEmpty(t, first["request_id"])

	assert.Equal(t, "WARN", second["level"])
	assert.Equal(t, float64(404), second["status"])
	assert.Equal(t, "/missing", second["path"])
}
