package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

// Decode reads a YAML catalog document. Unknown fields are rejected so
// typos in hand-edited catalogs surface early.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode catalog: %w", err)
	}
	return doc, nil
}

// Load reads, validates and indexes a catalog file.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return New(doc)
}

// Default returns the built-in Python curriculum.
func Default() (*Catalog, error) {
	doc, err := Decode(bytes.NewReader(defaultCatalog))
	if err != nil {
		return nil, err
	}
	return New(doc)
}

// LoadOrDefault loads path when non-empty, otherwise the built-in catalog.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}
