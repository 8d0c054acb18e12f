package face

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/mock"
)

// ProviderType defines supported face detection backends
type ProviderType string

const (
	// ProviderTypeDeepFace is the DeepFace HTTP service
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeMock derives descriptors from the image hash (dev/test)
	ProviderTypeMock ProviderType = "mock"
)

// NewFaceDetector creates the detection backend selected by FACE_PROVIDER.
//
// Environment variables:
//   - FACE_PROVIDER: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL, DEEPFACE_MODEL, DEEPFACE_DETECTOR: DeepFace API settings
//   - MOCK_FACE_COUNT: faces the mock reports per image (default: 1)
func NewFaceDetector(cfg *config.Config) (provider.FaceDetector, error) {
	switch ProviderType(cfg.FaceProvider) {
	case ProviderTypeDeepFace, "":
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeMock:
		return mock.New(mock.WithFaceCount(cfg.MockFaceCount)), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s)",
			cfg.FaceProvider, ProviderTypeDeepFace, ProviderTypeMock)
	}
}

// createDeepFaceProvider fills unset fields from deepface.DefaultConfig
func createDeepFaceProvider(cfg *config.Config) provider.FaceDetector {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}

	return deepface.NewProvider(deepfaceConfig)
}
