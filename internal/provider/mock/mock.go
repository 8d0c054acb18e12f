package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// DescriptorDimension matches the face-api / Facenet descriptor size.
const DescriptorDimension = 128

// Provider implementa provider.FaceDetector para testes e desenvolvimento.
// The same image always yields the same descriptors.
type Provider struct {
	faces int
}

// Option configures the mock provider.
type Option func(*Provider)

// WithFaceCount sets how many faces every image contains. Zero simulates
// images without a face.
func WithFaceCount(n int) Option {
	return func(p *Provider) {
		if n >= 0 {
			p.faces = n
		}
	}
}

// New cria uma nova instância do MockProvider
func New(opts ...Option) *Provider {
	p := &Provider{faces: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DetectFaces simula detecção de faces
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	faces := make([]provider.DetectedFace, 0, p.faces)
	width := 1.0 / float64(max(p.faces, 1))
	for i := 0; i < p.faces; i++ {
		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(i) * width,
				Y:      0.1,
				Width:  width,
				Height: 0.8,
			},
			Confidence: 0.99,
			Descriptor: Descriptor(image, i),
		})
	}

	return faces, nil
}

// Descriptor gera descriptor determinístico baseado no hash da imagem.
// face selects which of the image's faces the descriptor belongs to.
func Descriptor(image []byte, face int) domain.Descriptor {
	seed := make([]byte, len(image)+8)
	copy(seed, image)
	//nolint:gosec // face is a small non-negative index
	binary.BigEndian.PutUint64(seed[len(image):], uint64(face))
	base := sha256.Sum256(seed)

	d := make(domain.Descriptor, DescriptorDimension)
	var block [sha256.Size]byte
	for i := range d {
		if i%sha256.Size == 0 {
			var counter [8]byte
			//nolint:gosec // i is always non-negative
			binary.BigEndian.PutUint64(counter[:], uint64(i))
			block = sha256.Sum256(append(base[:], counter[:]...))
		}
		d[i] = float32(block[i%sha256.Size])/255.0*2 - 1
	}

	var norm float64
	for _, v := range d {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return d
	}
	for i := range d {
		d[i] = float32(float64(d[i]) / norm)
	}
	return d
}

var _ provider.FaceDetector = (*Provider)(nil)
