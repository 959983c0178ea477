package media

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Category is the closed set of media categories backed by a store table.
type Category string

const (
	CategoryPhotos    Category = "Photos"
	CategoryVideos    Category = "Videos"
	CategoryAudio     Category = "Audio"
	CategoryDocuments Category = "Documents"
)

// Categories lists every category in processing order.
func Categories() []Category {
	return []Category{CategoryPhotos, CategoryVideos, CategoryAudio, CategoryDocuments}
}

// ParseCategory resolves a category from user input (case-insensitive).
func ParseCategory(value string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "photos", "photo":
		return CategoryPhotos, nil
	case "videos", "video":
		return CategoryVideos, nil
	case "audio":
		return CategoryAudio, nil
	case "documents", "document", "docs":
		return CategoryDocuments, nil
	default:
		return "", fmt.Errorf("unknown media category %q", value)
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPhotos, CategoryVideos, CategoryAudio, CategoryDocuments:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// File is a media file discovered during a scan.
type File struct {
	Path      string
	Name      string
	Extension string
	Category  Category
}

// NewFile derives the file attributes from an absolute path. ok is false when
// the extension does not belong to any catalog category.
func NewFile(path string, catalog *Catalog) (File, bool) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	file := File{Path: path, Name: name, Extension: ext}
	if catalog == nil {
		return file, false
	}
	category, ok := catalog.CategoryFor(ext)
	file.Category = category
	return file, ok
}

// Catalog is the immutable extension and field-mapping configuration shared by
// every component of a run.
type Catalog struct {
	extensions map[Category]map[string]struct{}
	byExt      map[string]Category
	fields     map[Category]map[string]string
}

// CatalogSpec is the mutable form used to build a Catalog.
type CatalogSpec struct {
	Extensions map[Category][]string
	Fields     map[Category]map[string]string
}

// NewCatalog validates spec and freezes it. Extensions are lowercased and
// given a leading dot.
func NewCatalog(spec CatalogSpec) (*Catalog, error) {
	c := &Catalog{
		extensions: make(map[Category]map[string]struct{}),
		byExt:      make(map[string]Category),
		fields:     make(map[Category]map[string]string),
	}
	for category, exts := range spec.Extensions {
		if !category.Valid() {
			return nil, fmt.Errorf("catalog: unknown category %q", category)
		}
		set := make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			normalized := NormalizeExtension(ext)
			if normalized == "" {
				continue
			}
			if owner, exists := c.byExt[normalized]; exists && owner != category {
				return nil, fmt.Errorf("catalog: extension %s listed for both %s and %s", normalized, owner, category)
			}
			set[normalized] = struct{}{}
			c.byExt[normalized] = category
		}
		c.extensions[category] = set
	}
	for category, mapping := range spec.Fields {
		if !category.Valid() {
			return nil, fmt.Errorf("catalog: unknown category %q", category)
		}
		copied := make(map[string]string, len(mapping))
		for raw, column := range mapping {
			raw = strings.TrimSpace(raw)
			column = strings.TrimSpace(column)
			if raw == "" || column == "" {
				continue
			}
			copied[raw] = column
		}
		c.fields[category] = copied
	}
	return c, nil
}

// NormalizeExtension lowercases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// CategoryFor returns the category owning ext.
func (c *Catalog) CategoryFor(ext string) (Category, bool) {
	category, ok := c.byExt[NormalizeExtension(ext)]
	return category, ok
}

// Has reports whether ext belongs to category.
func (c *Catalog) Has(category Category, ext string) bool {
	set, ok := c.extensions[category]
	if !ok {
		return false
	}
	_, ok = set[NormalizeExtension(ext)]
	return ok
}

// Extensions returns the sorted extensions registered for category.
func (c *Catalog) Extensions(category Category) []string {
	set := c.extensions[category]
	out := make([]string, 0, len(set))
	for ext := range set {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// FieldMapping returns a copy of the raw-tag to storage-field mapping for category.
func (c *Catalog) FieldMapping(category Category) map[string]string {
	src := c.fields[category]
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// DefaultCatalogSpec returns the built-in extension tables and field mappings.
func DefaultCatalogSpec() CatalogSpec {
	return CatalogSpec{
		Extensions: map[Category][]string{
			CategoryPhotos:    {".jpg", ".jpeg", ".png", ".gif", ".heic", ".heif", ".tif", ".tiff", ".nef", ".dng", ".raw", ".arw", ".cr2", ".raf", ".webp"},
			CategoryVideos:    {".mp4", ".mov", ".avi", ".mkv", ".webm", ".3gp", ".mpeg", ".mpg", ".m4v", ".mts"},
			CategoryAudio:     {".mp3", ".wav", ".flac", ".m4a", ".aac", ".ogg"},
			CategoryDocuments: {".pdf", ".doc", ".docx", ".txt", ".odt"},
		},
		Fields: map[Category]map[string]string{
			CategoryPhotos: {
				"FileName":         "file_name",
				"Directory":        "file_location",
				"DateTimeOriginal": "date_taken",
				"Flash":            "flash",
				"FileSize":         "size",
				"ImageWidth":       "width",
				"ImageHeight":      "height",
				"Make":             "camera_make",
				"Model":            "camera_model",
				"MIMEType":         "mime_type",
			},
			CategoryVideos: {
				"FileName":    "file_name",
				"Directory":   "file_location",
				"CreateDate":  "date_taken",
				"Duration":    "duration",
				"FileSize":    "size",
				"ImageWidth":  "width",
				"ImageHeight": "height",
				"Make":        "camera_make",
				"Model":       "camera_model",
				"MIMEType":    "mime_type",
			},
			CategoryAudio: {
				"FileName":   "file_name",
				"Directory":  "file_location",
				"CreateDate": "date_taken",
				"Duration":   "duration",
				"FileSize":   "size",
				"MIMEType":   "mime_type",
			},
			CategoryDocuments: {
				"FileName":   "file_name",
				"Directory":  "file_location",
				"CreateDate": "date_taken",
				"FileSize":   "size",
				"MIMEType":   "mime_type",
			},
		},
	}
}

// DefaultCatalog returns the frozen built-in catalog.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(DefaultCatalogSpec())
	if err != nil {
		panic(err)
	}
	return catalog
}
