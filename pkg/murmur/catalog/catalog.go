// Package catalog is a read-only view of the brand vocabulary: brands,
// the categories they belong to, their curated keywords and the general
// keyword list.
package catalog

import (
	"sort"
	"strings"
)

// Brand is one catalog entry.
type Brand struct {
	Name       string   `yaml:"-" json:"name"`
	Categories []string `yaml:"categories" json:"categories"`
	Keywords   []string `yaml:"keywords" json:"keywords"`
}

// Catalog indexes brands by name and category.
type Catalog struct {
	brands  map[string]Brand
	lookup  map[string]string // lowercased name → name
	names   []string
	general []string
}

// New builds a catalog. Later brands with the same name replace earlier ones.
func New(brands []Brand, general []string) *Catalog {
	c := &Catalog{
		brands: make(map[string]Brand, len(brands)),
		lookup: make(map[string]string, len(brands)),
	}
	for _, b := range brands {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			continue
		}
		b.Name = name
		if _, exists := c.brands[name]; !exists {
			c.names = append(c.names, name)
		}
		c.brands[name] = b
		c.lookup[strings.ToLower(name)] = name
	}
	sort.Strings(c.names)
	c.general = append([]string(nil), general...)
	return c
}

// Brand finds a brand by exact name, then case-insensitively.
func (c *Catalog) Brand(name string) (Brand, bool) {
	if b, ok := c.brands[name]; ok {
		return b, true
	}
	if canonical, ok := c.lookup[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c.brands[canonical], true
	}
	return Brand{}, false
}

// Brands returns every brand name, sorted.
func (c *Catalog) Brands() []string {
	return append([]string(nil), c.names...)
}

// Categories returns every category used by a brand, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, name := range c.names {
		for _, cat := range c.brands[name].Categories {
			if _, ok := seen[cat]; ok {
				continue
			}
			seen[cat] = struct{}{}
			out = append(out, cat)
		}
	}
	sort.Strings(out)
	return out
}

// BrandsInCategory returns the sorted names of brands listed under category.
func (c *Catalog) BrandsInCategory(category string) []string {
	var out []string
	for _, name := range c.names {
		for _, cat := range c.brands[name].Categories {
			if strings.EqualFold(cat, category) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// CategoryKeywords returns the union of the keywords of every brand in
// category, in brand order without repeats.
func (c *Catalog) CategoryKeywords(category string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, name := range c.BrandsInCategory(category) {
		for _, kw := range c.brands[name].Keywords {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

// GeneralKeywords returns the catalog-wide keyword list.
func (c *Catalog) GeneralKeywords() []string {
	return append([]string(nil), c.general...)
}

// Merge appends extra keywords to base, skipping any already present.
func Merge(base, extra []string) []string {
	out := append([]string(nil), base...)
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, kw := range base {
		seen[strings.ToLower(kw)] = struct{}{}
	}
	for _, kw := range extra {
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}
