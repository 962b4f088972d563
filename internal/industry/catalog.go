package industry

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Example is a published mission statement used as a reference point.
type Example struct {
	Name    string `yaml:"name" json:"name"`
	Mission string `yaml:"mission" json:"mission"`
}

// Industry is one entry of the catalog.
type Industry struct {
	ID       string    `yaml:"id" json:"id"`
	Label    string    `yaml:"label" json:"label"`
	Icon     string    `yaml:"icon,omitempty" json:"icon,omitempty"`
	Context  string    `yaml:"context" json:"context"`
	Aliases  []string  `yaml:"aliases,omitempty" json:"-"`
	Examples []Example `yaml:"examples,omitempty" json:"-"`
}

// Catalog resolves industry tags to their context. Unknown tags resolve to
// the fallback context and are never an error.
type Catalog struct {
	Fallback   string     `yaml:"fallback"`
	Industries []Industry `yaml:"industries"`

	index map[string]int
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse industry catalog: %w", err)
	}
	if strings.TrimSpace(c.Fallback) == "" {
		return nil, fmt.Errorf("parse industry catalog: fallback context is required")
	}
	c.index = make(map[string]int, len(c.Industries))
	for i, ind := range c.Industries {
		if ind.ID == "" {
			return nil, fmt.Errorf("parse industry catalog: entry %d has no id", i)
		}
		for _, key := range append([]string{ind.ID}, ind.Aliases...) {
			key = normalize(key)
			if _, dup := c.index[key]; dup {
				return nil, fmt.Errorf("parse industry catalog: duplicate tag %q", key)
			}
			c.index[key] = i
		}
	}
	return &c, nil
}

var defaultCatalog = mustParse(catalogYAML)

func mustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Lookup returns the industry for tag.
func (c *Catalog) Lookup(tag string) (Industry, bool) {
	i, ok := c.index[normalize(tag)]
	if !ok {
		return Industry{}, false
	}
	return c.Industries[i], true
}

// Context returns the framing text for tag, or the fallback.
func (c *Catalog) Context(tag string) string {
	if ind, ok := c.Lookup(tag); ok {
		return ind.Context
	}
	return c.Fallback
}

// Canonical returns the catalog id for tag. Unknown tags are returned
// trimmed and lower-cased so they can still be stored.
func (c *Catalog) Canonical(tag string) string {
	if ind, ok := c.Lookup(tag); ok {
		return ind.ID
	}
	return normalize(tag)
}

// Examples returns the reference statements for tag.
func (c *Catalog) Examples(tag string) []Example {
	ind, ok := c.Lookup(tag)
	if !ok {
		return nil
	}
	return ind.Examples
}

func normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
