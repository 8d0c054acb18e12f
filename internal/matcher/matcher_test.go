package matcher

import (
	"math"
	"testing"

	"github.com/coder/hnsw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// vec128 returns a 128-dim descriptor with every component set to v.
func vec128(v float32) domain.Descriptor {
	d := make(domain.Descriptor, 128)
	for i := range d {
		d[i] = v
	}
	return d
}

// offset returns base moved so that its Euclidean distance to base is dist.
func offset(base domain.Descriptor, dist float64) domain.Descriptor {
	out := make(domain.Descriptor, len(base))
	copy(out, base)
	out[0] += float32(dist)
	return out
}

func TestFaceMatcher_Scenario(t *testing.T) {
	alice := vec128(0.1)
	m := New([]domain.LabeledDescriptors{
		{Label: "Alice", Descriptors: []domain.Descriptor{alice}},
	}, 0.6)

	t.Run("within threshold", func(t *testing.T) {
		got := m.FindBestMatch(offset(alice, 0.3))
		assert.Equal(t, "Alice", got.Label)
		assert.InDelta(t, 0.3, got.Distance, 1e-5)
	})

	t.Run("beyond threshold", func(t *testing.T) {
		got := m.FindBestMatch(offset(alice, 0.9))
		assert.True(t, got.IsUnknown())
		assert.InDelta(t, 0.9, got.Distance, 1e-5)
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		exact := New([]domain.LabeledDescriptors{
			{Label: "Alice", Descriptors: []domain.Descriptor{{0, 0}}},
		}, 0.5)
		got := exact.FindBestMatch(domain.Descriptor{0.3, 0.4})
		assert.True(t, got.IsUnknown())
	})
}

func TestFaceMatcher_PicksLowestMeanDistance(t *testing.T) {
	base := vec128(0)
	m := New([]domain.LabeledDescriptors{
		// mean of 0.1 and 0.5 is 0.3
		{Label: "Alice", Descriptors: []domain.Descriptor{offset(base, 0.1), offset(base, 0.5)}},
		{Label: "Bob", Descriptors: []domain.Descriptor{offset(base, 0.2)}},
	}, 0.6)

	got := m.FindBestMatch(base)
	assert.Equal(t, "Bob", got.Label)
	assert.InDelta(t, 0.2, got.Distance, 1e-5)
}

func TestFaceMatcher_TieGoesToLaterEntry(t *testing.T) {
	base := vec128(0)
	m := New([]domain.LabeledDescriptors{
		{Label: "Alice", Descriptors: []domain.Descriptor{offset(base, 0.25)}},
		{Label: "Bob", Descriptors: []domain.Descriptor{offset(base, 0.25)}},
	}, 0.6)

	assert.Equal(t, "Bob", m.FindBestMatch(base).Label)
}

func TestFaceMatcher_SkipsMismatchedDimensions(t *testing.T) {
	m := New([]domain.LabeledDescriptors{
		{Label: "Short", Descriptors: []domain.Descriptor{{0, 0, 0}}},
		{Label: "Mixed", Descriptors: []domain.Descriptor{{9, 9}, vec128(0.05)}},
	}, 0.6)

	got := m.FindBestMatch(vec128(0.05))
	assert.Equal(t, "Mixed", got.Label)
	assert.InDelta(t, 0, got.Distance, 1e-6)
}

func TestFaceMatcher_NothingComparable(t *testing.T) {
	m := New([]domain.LabeledDescriptors{
		{Label: "Empty", Descriptors: nil},
		{Label: "Short", Descriptors: []domain.Descriptor{{1}}},
	}, 0.6)

	got := m.FindBestMatch(vec128(0))
	assert.True(t, got.IsUnknown())
	assert.Zero(t, got.Distance)
}

func TestFaceMatcher_DefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultThreshold, New(nil, 0).Threshold())
	assert.Equal(t, DefaultThreshold, New(nil, -1).Threshold())
	assert.Equal(t, 0.4, New(nil, 0.4).Threshold())
}

func TestFaceMatcher_FirstMatch(t *testing.T) {
	alice := vec128(0.2)
	bob := vec128(-0.2)
	m := New([]domain.LabeledDescriptors{
		{Label: "Alice", Descriptors: []domain.Descriptor{alice}},
		{Label: "Bob", Descriptors: []domain.Descriptor{bob}},
	}, 0.6)

	stranger := vec128(5)

	t.Run("first recognized face wins", func(t *testing.T) {
		match, results, ok := m.FirstMatch([]domain.Descriptor{stranger, bob, alice})
		require.True(t, ok)
		assert.Equal(t, "Bob", match.Label)
		require.Len(t, results, 3)
		assert.True(t, results[0].IsUnknown())
		assert.Equal(t, "Bob", results[1].Label)
		assert.Equal(t, "Alice", results[2].Label)
	})

	t.Run("no recognized face", func(t *testing.T) {
		match, results, ok := m.FirstMatch([]domain.Descriptor{stranger})
		assert.False(t, ok)
		assert.True(t, match.IsUnknown())
		require.Len(t, results, 1)
		assert.False(t, math.IsNaN(results[0].Distance))
	})
}

func TestDistance_Float64Accumulation(t *testing.T) {
	a := domain.Descriptor{0.1, 0.2, 0.3}
	b := domain.Descriptor{0.4, 0.6, 0.7}

	var want float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		want += diff * diff
	}
	want = math.Sqrt(want)

	got := Distance(a, b)
	assert.InDelta(t, want, got, 1e-15)
	// agrees with the float32 implementation up to float32 precision
	assert.InDelta(t, float64(hnsw.EuclideanDistance(a, b)), got, 1e-6)
}

func TestFaceMatcher_ReportsFloat64Distance(t *testing.T) {
	// the threshold sits a hair above the float64 distance
	registered := domain.Descriptor{0, 0}
	query := domain.Descriptor{0.36, 0.48}

	want := Distance(registered, query)
	m := New([]domain.LabeledDescriptors{
		{Label: "Alice", Descriptors: []domain.Descriptor{registered}},
	}, want+1e-12)

	got := m.FindBestMatch(query)
	assert.Equal(t, "Alice", got.Label)
	assert.Equal(t, want, got.Distance)
}
