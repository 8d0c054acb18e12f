// Package matcher finds the registered user closest to a face descriptor.
//
// Scoring follows the face-api.js FaceMatcher: each labeled set is scored by
// the mean Euclidean distance between the query and all of its descriptors,
// the lowest mean wins, and the winner is reported only when its distance is
// strictly below the threshold. Distances are accumulated in float64 so
// results near the threshold agree with face-api.js.
package matcher

import (
	"math"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// DefaultThreshold is the maximum distance accepted as a match.
const DefaultThreshold = 0.6

// FaceMatcher scores descriptors against a fixed set of labeled descriptors.
type FaceMatcher struct {
	labeled   []domain.LabeledDescriptors
	threshold float64
}

// New builds a matcher over the given registry snapshot.
// A non-positive threshold falls back to DefaultThreshold.
func New(labeled []domain.LabeledDescriptors, threshold float64) *FaceMatcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &FaceMatcher{
		labeled:   labeled,
		threshold: threshold,
	}
}

// Threshold returns the distance threshold in use.
func (m *FaceMatcher) Threshold() float64 {
	return m.threshold
}

// FindBestMatch returns the closest label, or domain.UnknownLabel with the
// closest distance when nothing is below the threshold. When no registered
// descriptor is comparable with query the result is unknown at distance 0.
func (m *FaceMatcher) FindBestMatch(query domain.Descriptor) domain.FaceMatch {
	best, ok := m.bestLabel(query)
	if !ok {
		return domain.FaceMatch{Label: domain.UnknownLabel}
	}
	if best.Distance < m.threshold {
		return best
	}
	return domain.FaceMatch{Label: domain.UnknownLabel, Distance: best.Distance}
}

// bestLabel returns the label with the lowest mean distance. On equal means
// the later label wins.
func (m *FaceMatcher) bestLabel(query domain.Descriptor) (domain.FaceMatch, bool) {
	var (
		best  domain.FaceMatch
		found bool
	)

	for _, entry := range m.labeled {
		mean, ok := m.meanDistance(query, entry.Descriptors)
		if !ok {
			continue
		}
		if !found || mean <= best.Distance {
			best = domain.FaceMatch{Label: entry.Label, Distance: mean}
			found = true
		}
	}

	return best, found
}

// meanDistance averages the distance to every descriptor of the same
// dimensionality as query. Descriptors of another size are ignored.
func (m *FaceMatcher) meanDistance(query domain.Descriptor, descriptors []domain.Descriptor) (float64, bool) {
	if len(query) == 0 {
		return 0, false
	}

	var (
		sum   float64
		count int
	)
	for _, d := range descriptors {
		if len(d) != len(query) {
			continue
		}
		sum += Distance(query, d)
		count++
	}

	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// Distance is the Euclidean distance between two descriptors of equal length,
// computed in float64.
func Distance(a, b domain.Descriptor) float64 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// FirstMatch scores every query and returns the first non-unknown match in
// query order along with the per-face results.
func (m *FaceMatcher) FirstMatch(queries []domain.Descriptor) (domain.FaceMatch, []domain.FaceMatch, bool) {
	results := make([]domain.FaceMatch, len(queries))
	for i, q := range queries {
		results[i] = m.FindBestMatch(q)
	}

	for _, r := range results {
		if !r.IsUnknown() {
			return r, results, true
		}
	}
	return domain.FaceMatch{Label: domain.UnknownLabel}, results, false
}
