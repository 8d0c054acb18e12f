package handler

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

// An empty Content-Type is allowed; the decoder sniffs the format.
var validImageTypes = map[string]bool{
	"":                         true,
	"application/octet-stream": true,
	"image/jpeg":               true,
	"image/png":                true,
	"image/gif":                true,
	"image/bmp":                true,
	"image/webp":               true,
}

// FaceService interface for the service
type FaceService interface {
	Register(ctx context.Context, name string, image []byte) (*domain.Registration, error)
	CheckMatch(ctx context.Context, image []byte) (*domain.MatchResult, error)
	Delete(ctx context.Context, name string) (int, error)
	Users() []string
	State() domain.AppState
}

// FaceHandler serves the user registry and match endpoints
type FaceHandler struct {
	service FaceService
	logger  *slog.Logger
}

// NewFaceHandler creates a new FaceHandler instance
func NewFaceHandler(service FaceService, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		service: service,
		logger:  logger,
	}
}

// UsersResponse response for the users listing
type UsersResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// DeleteResponse response for the delete endpoint
type DeleteResponse struct {
	Deleted string `json:"deleted"`
	Entries int    `json:"entries"`
}

// State GET /v1/state
func (h *FaceHandler) State(c *fiber.Ctx) error {
	return c.JSON(h.service.State())
}

// ListUsers GET /v1/users
func (h *FaceHandler) ListUsers(c *fiber.Ctx) error {
	users := h.service.Users()
	return c.JSON(UsersResponse{
		Users: users,
		Count: len(users),
	})
}

// Register POST /v1/users - register the faces of an uploaded image, or of
// the current camera frame when no image is sent
func (h *FaceHandler) Register(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return domain.ErrNameRequired
	}

	image, err := optionalImage(c)
	if err != nil {
		return err
	}

	result, err := h.service.Register(c.UserContext(), name, image)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// DeleteUser DELETE /v1/users/:name - removes every entry with that name
func (h *FaceHandler) DeleteUser(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrNameRequired
	}

	removed, err := h.service.Delete(c.UserContext(), name)
	if err != nil {
		return err
	}

	return c.JSON(DeleteResponse{
		Deleted: name,
		Entries: removed,
	})
}

// Match POST /v1/match - check an uploaded image against the registry
func (h *FaceHandler) Match(c *fiber.Ctx) error {
	image, err := optionalImage(c)
	if err != nil {
		return err
	}
	if image == nil {
		return domain.ErrImageRequired
	}

	result, err := h.service.CheckMatch(c.UserContext(), image)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// optionalImage returns the "image" upload, or nil when the request carries none.
func optionalImage(c *fiber.Ctx) ([]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// not multipart: nothing uploaded
		return nil, nil
	}

	files := form.File["image"]
	if len(files) == 0 {
		return nil, nil
	}
	return readImage(files[0])
}

// readImage validates and reads an uploaded image
func readImage(file *multipart.FileHeader) ([]byte, error) {
	if file.Size == 0 {
		return nil, domain.ErrImageRequired
	}
	if file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(fiber.ErrRequestEntityTooLarge)
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
