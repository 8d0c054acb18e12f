package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/models"
)

// ModelStatus reports the model loader state
type ModelStatus interface {
	Status() models.Status
}

// CameraStatus reports whether the camera was acquired
type CameraStatus interface {
	Ready() bool
}

type HealthHandler struct {
	models ModelStatus
	camera CameraStatus
}

func NewHealthHandler(models ModelStatus, camera CameraStatus) *HealthHandler {
	return &HealthHandler{models: models, camera: camera}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ReadyResponse is returned by /ready. The camera is optional: registration
// with an uploaded image works without it, so it does not gate readiness.
type ReadyResponse struct {
	Status      string        `json:"status"`
	Models      models.Status `json:"models"`
	CameraReady bool          `json:"camera_ready"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: "0.1.0",
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	resp := ReadyResponse{
		Status:      "ready",
		Models:      h.models.Status(),
		CameraReady: h.camera != nil && h.camera.Ready(),
	}

	if !resp.Models.Ready {
		resp.Status = "not_ready"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
