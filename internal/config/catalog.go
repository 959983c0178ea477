package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mediasort/internal/media"
)

// catalogFile is the on-disk shape of the optional catalog override.
//
//	extensions:
//	  Photos: [".jpg", ".heic"]
//	fields:
//	  Videos:
//	    CreateDate: date_taken
type catalogFile struct {
	Extensions map[string][]string          `yaml:"extensions"`
	Fields     map[string]map[string]string `yaml:"fields"`
}

// Catalog returns the frozen catalog for this run: the built-in tables with
// any category present in ingest.catalog_path replacing its defaults.
func (c *Config) Catalog() (*media.Catalog, error) {
	spec := media.DefaultCatalogSpec()
	path := strings.TrimSpace(c.Ingest.CatalogPath)
	if path == "" {
		return media.NewCatalog(spec)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	for name, exts := range file.Extensions {
		category, err := media.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: extensions: %w", path, err)
		}
		spec.Extensions[category] = exts
	}
	for name, mapping := range file.Fields {
		category, err := media.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: fields: %w", path, err)
		}
		spec.Fields[category] = mapping
	}

	catalog, err := media.NewCatalog(spec)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}
