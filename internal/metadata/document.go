package metadata

import (
	"context"
	"strings"
)

// Document is the raw tag → value map produced once per file by an
// Extractor. Values are strings, JSON numbers (float64), bools or nil.
type Document map[string]any

// Lookup finds key case-insensitively with spaces ignored.
func (d Document) Lookup(key string) (any, bool) {
	if v, ok := d[key]; ok {
		return v, true
	}
	want := normalizeKey(key)
	for k, v := range d {
		if normalizeKey(k) == want {
			return v, true
		}
	}
	return nil, false
}

// Extractor produces the metadata document for a file.
type Extractor interface {
	Extract(ctx context.Context, path string) (Document, error)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, " ", ""))
}
