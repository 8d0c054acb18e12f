package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

func TestDescriptors(t *testing.T) {
	faces := []DetectedFace{
		{Descriptor: domain.Descriptor{0.1, 0.2}},
		{Descriptor: nil},
		{Descriptor: domain.Descriptor{0.3, 0.4}},
	}

	got := Descriptors(faces)

	assert.Equal(t, []domain.Descriptor{{0.1, 0.2}, {0.3, 0.4}}, got)
	assert.Empty(t, Descriptors(nil))
}
