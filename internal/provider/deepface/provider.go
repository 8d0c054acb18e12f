package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.FaceDetector using DeepFace API
type Provider struct {
	client    *Client
	normalize bool
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client:    NewClient(config),
		normalize: config.Normalize,
	}
}

// DetectFaces detects every face in the image and returns its descriptor.
// An image DeepFace rejects for having no face yields an empty slice.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		if noFaceError(err) {
			return []provider.DetectedFace{}, nil
		}
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		if len(result.Embedding) == 0 {
			continue
		}

		confidence := calculateConfidence(float64(result.FacialArea.W * result.FacialArea.H))
		if result.FaceConfidence != nil {
			confidence = *result.FaceConfidence
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
			Confidence: confidence,
			Descriptor: toDescriptor(result.Embedding, p.normalize),
		})
	}

	return faces, nil
}

// calculateConfidence estimates confidence based on face area for DeepFace
// versions that do not report face_confidence.
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

// toDescriptor converts an embedding to a descriptor, optionally scaled to unit length.
func toDescriptor(embedding []float64, normalize bool) domain.Descriptor {
	var norm float64
	if normalize {
		for _, v := range embedding {
			norm += v * v
		}
		norm = math.Sqrt(norm)
	}

	d := make(domain.Descriptor, len(embedding))
	for i, v := range embedding {
		if norm > 0 {
			v /= norm
		}
		d[i] = float32(v)
	}
	return d
}

var _ provider.FaceDetector = (*Provider)(nil)
