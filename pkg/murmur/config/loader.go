package config

import (
	"fmt"

	"github.com/cognicore/murmur/pkg/murmur/catalog"
	"github.com/cognicore/murmur/pkg/murmur/ingest"
	"github.com/cognicore/murmur/pkg/murmur/sentiment"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	CatalogPath  string
	RulesPath    string
	StoplistPath string
}

// Components holds all loaded configuration components
type Components struct {
	Catalog   *catalog.Catalog
	Rules     *sentiment.Rules
	Tokenizer *ingest.Tokenizer
}

// Load reads all configuration files and returns initialized components.
// Missing paths yield empty components.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	if l.CatalogPath != "" {
		cat, err := LoadCatalog(l.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		comp.Catalog = cat.Build()
	} else {
		comp.Catalog = catalog.New(nil, nil)
	}

	if l.RulesPath != "" {
		rules, err := LoadRules(l.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		compiled, err := sentiment.CompileRules(rules.Rules)
		if err != nil {
			return nil, fmt.Errorf("compile rules: %w", err)
		}
		comp.Rules = compiled
	} else {
		comp.Rules = sentiment.MustCompileRules(nil)
	}

	if l.StoplistPath != "" {
		stoplist, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Tokenizer = ingest.NewTokenizer(ingest.DefaultMinLen, stoplist.Terms)
	} else {
		comp.Tokenizer = ingest.NewTokenizer(ingest.DefaultMinLen, nil)
	}

	return comp, nil
}
