package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// FaceDetector detects every face in an image and extracts one descriptor per face.
// Implementations never persist anything; the registry owns the descriptors.
type FaceDetector interface {
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox       `json:"bounding_box"`
	Confidence  float64           `json:"confidence"`
	Descriptor  domain.Descriptor `json:"-"`
}

// BoundingBox represents the face area in the image
type BoundingBox = domain.BoundingBox

// Detection returns the face's box and confidence without its descriptor.
func (f DetectedFace) Detection() domain.Detection {
	return domain.Detection{Box: f.BoundingBox, Confidence: f.Confidence}
}

// Usable drops faces without a descriptor, keeping the order of the rest.
func Usable(faces []DetectedFace) []DetectedFace {
	out := make([]DetectedFace, 0, len(faces))
	for _, f := range faces {
		if len(f.Descriptor) == 0 {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Descriptors collects the descriptor of every face, skipping empty ones.
func Descriptors(faces []DetectedFace) []domain.Descriptor {
	usable := Usable(faces)
	out := make([]domain.Descriptor, len(usable))
	for i, f := range usable {
		out[i] = f.Descriptor
	}
	return out
}

// Detections collects box and confidence of every face, skipping the same
// faces Descriptors skips so both slices stay index-aligned.
func Detections(faces []DetectedFace) []domain.Detection {
	usable := Usable(faces)
	out := make([]domain.Detection, len(usable))
	for i, f := range usable {
		out[i] = f.Detection()
	}
	return out
}
