package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	_ "embed"
)

//go:embed models.yaml
var defaultList []byte

// Spec names one model and the weights manifest describing it.
type Spec struct {
	Name     string `yaml:"name"`
	Manifest string `yaml:"manifest"`
}

type list struct {
	Models []Spec `yaml:"models"`
}

// DefaultSpecs returns the models the detection pipeline needs, in load order.
func DefaultSpecs() ([]Spec, error) {
	return ParseSpecs(defaultList)
}

// ParseSpecs reads a YAML model list.
func ParseSpecs(data []byte) ([]Spec, error) {
	var l list
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse model list: %w", err)
	}
	for i, s := range l.Models {
		if s.Name == "" || s.Manifest == "" {
			return nil, fmt.Errorf("parse model list: entry %d needs name and manifest", i)
		}
	}
	return l.Models, nil
}

// WeightGroup is one group of a weights manifest: tensors stored across shards.
type WeightGroup struct {
	Weights []WeightSpec `json:"weights"`
	Paths   []string     `json:"paths"`
}

// WeightSpec describes one tensor.
type WeightSpec struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
	Dtype string `json:"dtype"`
}

var ErrInvalidManifest = errors.New("invalid weights manifest")

// ParseManifest decodes a weights manifest and checks its structure.
func ParseManifest(data []byte) ([]WeightGroup, error) {
	var groups []WeightGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no weight groups", ErrInvalidManifest)
	}

	for i, g := range groups {
		if len(g.Paths) == 0 {
			return nil, fmt.Errorf("%w: group %d lists no shards", ErrInvalidManifest, i)
		}
		for _, w := range g.Weights {
			if w.Name == "" {
				return nil, fmt.Errorf("%w: group %d has an unnamed tensor", ErrInvalidManifest, i)
			}
			switch w.Dtype {
			case "float32", "int32", "uint8":
			default:
				return nil, fmt.Errorf("%w: tensor %s has dtype %q", ErrInvalidManifest, w.Name, w.Dtype)
			}
		}
	}
	return groups, nil
}

// Shards lists every shard path of the manifest in order.
func Shards(groups []WeightGroup) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g.Paths...)
	}
	return out
}
