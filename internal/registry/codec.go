package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// storedEntry is the persisted shape: {"label": string, "descriptors": number[][]}
type storedEntry struct {
	Label       string      `json:"label"`
	Descriptors [][]float32 `json:"descriptors"`
}

// Encode serializes the registry as a JSON array of labeled descriptor sets.
func Encode(entries []domain.LabeledDescriptors) ([]byte, error) {
	out := make([]storedEntry, 0, len(entries))
	for _, e := range entries {
		descriptors := make([][]float32, 0, len(e.Descriptors))
		for _, d := range e.Descriptors {
			descriptors = append(descriptors, []float32(d))
		}
		out = append(out, storedEntry{Label: e.Label, Descriptors: descriptors})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode registry: %w", err)
	}
	return data, nil
}

// Decode parses a stored registry, keeping only well-formed entries.
// An entry is dropped when its label is missing or empty, when descriptors is
// not an array, or when any descriptor is not an array of numbers.
// err is non-nil only when the blob as a whole is not a JSON array; entries
// is then empty.
func Decode(data []byte) (entries []domain.LabeledDescriptors, dropped int, err error) {
	entries = []domain.LabeledDescriptors{}

	if len(bytes.TrimSpace(data)) == 0 {
		return entries, 0, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return entries, 0, fmt.Errorf("decode registry: %w", err)
	}

	for _, item := range raw {
		entry, ok := decodeEntry(item)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, entry)
	}

	return entries, dropped, nil
}

func decodeEntry(item json.RawMessage) (domain.LabeledDescriptors, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return domain.LabeledDescriptors{}, false
	}

	var label string
	if err := json.Unmarshal(fields["label"], &label); err != nil || label == "" {
		return domain.LabeledDescriptors{}, false
	}

	rawDescriptors, ok := fields["descriptors"]
	if !ok || !isJSONArray(rawDescriptors) {
		return domain.LabeledDescriptors{}, false
	}

	var vectors [][]float64
	if err := json.Unmarshal(rawDescriptors, &vectors); err != nil {
		return domain.LabeledDescriptors{}, false
	}

	descriptors := make([]domain.Descriptor, 0, len(vectors))
	for _, v := range vectors {
		if v == nil {
			return domain.LabeledDescriptors{}, false
		}
		d := make(domain.Descriptor, len(v))
		for i, f := range v {
			d[i] = float32(f)
		}
		descriptors = append(descriptors, d)
	}

	return domain.LabeledDescriptors{Label: label, Descriptors: descriptors}, true
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
