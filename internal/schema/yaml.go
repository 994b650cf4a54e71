package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlEntry is the file form of one tensor spec.
type yamlEntry struct {
	Name   string `yaml:"name"`
	Shape  []any  `yaml:"shape"`
	IsLoss bool   `yaml:"is_loss"`
}

// yamlSchema is the file form of a model descriptor.
type yamlSchema struct {
	Inputs  []yamlEntry `yaml:"inputs"`
	Outputs []yamlEntry `yaml:"outputs"`
}

// LoadFile reads a descriptor from a YAML file and validates it.
//
//nolint:gosec // G304: Path is provided by user, file inclusion is intentional.
func LoadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses and validates a YAML descriptor document.
func FromYAML(data []byte) (*Descriptor, error) {
	var doc yamlSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSchema, err)
	}

	toEntries := func(entries []yamlEntry, output bool) []any {
		raw := make([]any, len(entries))
		for i, e := range entries {
			if output {
				raw[i] = []any{e.Name, e.Shape, e.IsLoss}
			} else {
				raw[i] = []any{e.Name, e.Shape}
			}
		}
		return raw
	}

	return Validate(map[string]any{
		"inputs":  toEntries(doc.Inputs, false),
		"outputs": toEntries(doc.Outputs, true),
	})
}
