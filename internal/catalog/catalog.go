// Package catalog maps ability ids to display metadata. Nothing in the
// analysis pipeline branches on catalog contents.
package catalog

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed abilities.yaml
var builtinYAML []byte

// Ability is the display metadata for one ability id.
type Ability struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

// Catalog is an immutable id -> Ability table.
type Catalog struct {
	byID map[int64]Ability
}

type catalogFile struct {
	Abilities []Ability `yaml:"abilities"`
}

// Parse decodes a catalog document. Duplicate ids are rejected.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse YAML: %w", err)
	}
	c := &Catalog{byID: make(map[int64]Ability, len(f.Abilities))}
	for _, a := range f.Abilities {
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate ability id %d", a.ID)
		}
		c.byID[a.ID] = a
	}
	return c, nil
}

// Builtin returns the embedded catalog. It panics if the embedded file is
// invalid, which the package tests rule out.
func Builtin() *Catalog {
	c, err := Parse(builtinYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the ability for id.
func (c *Catalog) Lookup(id int64) (Ability, bool) {
	if c == nil {
		return Ability{}, false
	}
	a, ok := c.byID[id]
	return a, ok
}

// Name returns the display name for id, or "ability#<id>" when unknown.
func (c *Catalog) Name(id int64) string {
	if a, ok := c.Lookup(id); ok {
		return a.Name
	}
	return fmt.Sprintf("ability#%d", id)
}

// IDs returns all known ids in ascending order.
func (c *Catalog) IDs() []int64 {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.byID))
}
