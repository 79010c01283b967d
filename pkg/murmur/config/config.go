package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/murmur/pkg/murmur/catalog"
	"github.com/cognicore/murmur/pkg/murmur/internalerr"
	"github.com/cognicore/murmur/pkg/murmur/sentiment"
)

// Catalog represents the brand vocabulary file
//
//	brands:
//	  huggies:
//	    categories: [diapers]
//	    keywords: [soft, leak]
//	general_keywords: [price]
type Catalog struct {
	Brands          map[string]catalog.Brand `yaml:"brands"`
	GeneralKeywords []string                 `yaml:"general_keywords"`
}

// LoadCatalog loads the brand vocabulary from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	var cat Catalog
	if err := loadYAML(path, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Build converts the file form into a catalog.
func (c *Catalog) Build() *catalog.Catalog {
	brands := make([]catalog.Brand, 0, len(c.Brands))
	for name, b := range c.Brands {
		b.Name = name
		brands = append(brands, b)
	}
	return catalog.New(brands, c.GeneralKeywords)
}

// Rules represents the ordered sentiment override rules
type Rules struct {
	Rules []sentiment.Rule `yaml:"rules"`
}

// LoadRules loads override rules from a YAML file
func LoadRules(path string) (*Rules, error) {
	var r Rules
	if err := loadYAML(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	var sl Stoplist
	if err := loadYAML(path, &sl); err != nil {
		return nil, err
	}
	return &sl, nil
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}
	return nil
}
