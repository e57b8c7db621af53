// Package catalog loads bin registrations from YAML files for bulk import.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/binwatch/pkg/model"
)

// Entry is one bin in a catalog file.
type Entry struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Location string `yaml:"location,omitempty"`
}

// Catalog is a YAML list of bins to register.
type Catalog struct {
	Updated string  `yaml:"updated"`
	Bins    []Entry `yaml:"bins"`
}

// Load reads and validates a YAML catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}

	c, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return c, nil
}

// LoadFromBytes parses and validates YAML catalog data.
func LoadFromBytes(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if len(c.Bins) == 0 {
		return nil, fmt.Errorf("no bins defined")
	}

	seen := make(map[string]struct{}, len(c.Bins))
	for i, e := range c.Bins {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("bin %d: missing name", i)
		}
		if strings.TrimSpace(e.Type) == "" {
			return nil, fmt.Errorf("bin %q: missing type", e.Name)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("bin %q: duplicate name", e.Name)
		}
		seen[e.Name] = struct{}{}
	}

	return &c, nil
}

// ToBins converts catalog entries to unsaved bin records.
func (c *Catalog) ToBins() []model.Bin {
	bins := make([]model.Bin, 0, len(c.Bins))
	for _, e := range c.Bins {
		bins = append(bins, model.Bin{Name: e.Name, Type: e.Type, Location: e.Location})
	}
	return bins
}
