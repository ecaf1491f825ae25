// Package content loads, validates and serves the static lesson content: the
// ordered module list and each module's Learn/Visualize/Try-It bundle.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Entry pairs a module header with its bundle. Bundle is nil for modules
// marked coming soon.
type Entry struct {
	Module Module  `json:"module"`
	Bundle *Bundle `json:"bundle,omitempty"`
}

// Source produces a validated catalog.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// Catalog is the immutable, validated module table. It is safe for
// concurrent use.
type Catalog struct {
	modules []Module
	bundles map[int]Bundle
}

// NewCatalog validates entries and builds a catalog ordered by module ID.
func NewCatalog(entries []Entry) (*Catalog, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}

	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Module.ID < sorted[j].Module.ID })

	c := &Catalog{
		modules: make([]Module, 0, len(sorted)),
		bundles: make(map[int]Bundle, len(sorted)),
	}
	for _, e := range sorted {
		c.modules = append(c.modules, e.Module)
		if e.Bundle != nil {
			c.bundles[e.Module.ID] = *e.Bundle
		}
	}
	return c, nil
}

// Modules returns the modules in display order.
func (c *Catalog) Modules() []Module {
	return append([]Module(nil), c.modules...)
}

// Len returns the number of modules.
func (c *Catalog) Len() int {
	return len(c.modules)
}

// Module returns the module with the given ID.
func (c *Catalog) Module(id int) (Module, bool) {
	for _, m := range c.modules {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}

// Bundle returns the content bundle of a module. Coming-soon modules have
// none.
func (c *Catalog) Bundle(id int) (Bundle, bool) {
	b, ok := c.bundles[id]
	return b, ok
}

// Entries returns the catalog as entries in display order.
func (c *Catalog) Entries() []Entry {
	entries := make([]Entry, 0, len(c.modules))
	for _, m := range c.modules {
		e := Entry{Module: m}
		if b, ok := c.bundles[m.ID]; ok {
			b := b
			e.Bundle = &b
		}
		entries = append(entries, e)
	}
	return entries
}

// MarshalJSON encodes the catalog as its entry list.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Entries())
}

// UnmarshalJSON decodes and re-validates an entry list.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decoding catalog: %w", err)
	}
	built, err := NewCatalog(entries)
	if err != nil {
		return err
	}
	*c = *built
	return nil
}
