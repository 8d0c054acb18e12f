package face

import (
	"testing"

	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/mock"
)

func TestNewFaceDetector_DeepFace(t *testing.T) {
	tests := []struct {
		name         string
		faceProvider string
		deepFaceURL  string
	}{
		{
			name:         "explicit deepface provider",
			faceProvider: "deepface",
			deepFaceURL:  "http://localhost:5005",
		},
		{
			name:         "empty provider defaults to deepface",
			faceProvider: "",
			deepFaceURL:  "http://localhost:5005",
		},
		{
			name:         "empty URL falls back to default",
			faceProvider: "deepface",
			deepFaceURL:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				FaceProvider: tt.faceProvider,
				DeepFaceURL:  tt.deepFaceURL,
			}

			detector, err := NewFaceDetector(cfg)
			if err != nil {
				t.Fatalf("NewFaceDetector() error = %v", err)
			}

			if _, ok := detector.(*deepface.Provider); !ok {
				t.Errorf("NewFaceDetector() returned type %T, want *deepface.Provider", detector)
			}
		})
	}
}

func TestNewFaceDetector_Mock(t *testing.T) {
	cfg := &config.Config{FaceProvider: "mock", MockFaceCount: 2}

	detector, err := NewFaceDetector(cfg)
	if err != nil {
		t.Fatalf("NewFaceDetector() error = %v", err)
	}

	if _, ok := detector.(*mock.Provider); !ok {
		t.Errorf("NewFaceDetector() returned type %T, want *mock.Provider", detector)
	}
}

func TestNewFaceDetector_Unknown(t *testing.T) {
	cfg := &config.Config{FaceProvider: "rekognition"}

	if _, err := NewFaceDetector(cfg); err == nil {
		t.Error("NewFaceDetector() expected error for unsupported provider")
	}
}
