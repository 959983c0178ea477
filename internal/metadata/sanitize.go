package metadata

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"mediasort/internal/logging"
	"mediasort/internal/textutil"
)

var (
	hmsPattern   = regexp.MustCompile(`^(\d+):(\d+):(\d+)`)
	msPattern    = regexp.MustCompile(`^(\d+):(\d+)`)
	secsPattern  = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:\s*s\b.*)?$`)
	sizePattern  = regexp.MustCompile(`(?i)^([\d.]+)\s*(GB|MB|KB|B)`)
	intPattern   = regexp.MustCompile(`^-?\d+`)
	flashTokens  = map[string]struct{}{"yes": {}, "true": {}, "1": {}, "on": {}}
	skippedRaw   = map[string]struct{}{"": {}, "0000:00:00 00:00:00": {}, "N/A": {}}
	sizeUnits    = map[string]float64{"B": 1, "KB": 1 << 10, "MB": 1 << 20, "GB": 1 << 30}
	errNoPattern = errors.New("no recognizable value")
)

type mappingEntry struct {
	raw   string
	field Field
}

// Sanitizer converts raw documents into typed payloads using a raw-tag →
// storage-field mapping.
type Sanitizer struct {
	mapping []mappingEntry
	logger  *slog.Logger
}

// NewSanitizer validates mapping against the closed field set.
func NewSanitizer(mapping map[string]string, logger *slog.Logger) (*Sanitizer, error) {
	entries := make([]mappingEntry, 0, len(mapping))
	for raw, column := range mapping {
		field, err := ParseField(strings.TrimSpace(column))
		if err != nil {
			return nil, fmt.Errorf("mapping %s: %w", raw, err)
		}
		entries = append(entries, mappingEntry{raw: raw, field: field})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].raw < entries[j].raw })
	return &Sanitizer{mapping: entries, logger: logging.NewComponentLogger(logger, "sanitizer")}, nil
}

// Sanitize maps doc onto storage fields. Unusable values are dropped field by
// field; file_name and file_location always fall back to the path.
func (s *Sanitizer) Sanitize(doc Document, path string) Payload {
	payload := make(Payload, len(s.mapping)+2)
	for _, entry := range s.mapping {
		if _, done := payload[entry.field]; done {
			continue
		}
		raw, ok := doc.Lookup(entry.raw)
		if !ok || skipRaw(raw) {
			continue
		}
		value, err := coerce(entry.field, raw)
		if err != nil {
			s.logger.Debug("field dropped",
				logging.String("tag", entry.raw),
				logging.String("field", entry.field.String()),
				logging.String("raw", fmt.Sprint(raw)),
				logging.Error(err),
			)
			continue
		}
		payload[entry.field] = value
	}

	if _, ok := payload[FieldFileName]; !ok {
		name := filepath.Base(path)
		if raw, ok := doc.Lookup("FileName"); ok && !skipRaw(raw) {
			name = fmt.Sprint(raw)
		}
		if name = textutil.NormalizeName(name); name != "" && name != "." && name != string(filepath.Separator) {
			payload[FieldFileName] = Text(name)
		}
	}
	if _, ok := payload[FieldFileLocation]; !ok {
		location := filepath.Dir(path)
		if raw, ok := doc.Lookup("Directory"); ok && !skipRaw(raw) {
			location = fmt.Sprint(raw)
		}
		if location = strings.TrimSpace(location); location != "" {
			payload[FieldFileLocation] = Text(location)
		}
	}
	return payload
}

func skipRaw(raw any) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		_, skip := skippedRaw[strings.TrimSpace(s)]
		return skip
	}
	return false
}

func coerce(field Field, raw any) (Value, error) {
	switch field {
	case FieldDateTaken:
		return coerceDate(raw)
	case FieldFlash:
		return coerceFlash(raw), nil
	case FieldDuration:
		return ParseDuration(raw)
	case FieldSize:
		return ParseSize(raw)
	case FieldWidth, FieldHeight:
		return coerceInt(raw)
	case FieldFileName:
		name := textutil.NormalizeName(fmt.Sprint(raw))
		if name == "" {
			return nil, errNoPattern
		}
		return Text(name), nil
	default:
		text := textutil.CleanText(fmt.Sprint(raw))
		if text == "" {
			return nil, errNoPattern
		}
		return Text(text), nil
	}
}

func coerceDate(raw any) (Value, error) {
	if t, ok := raw.(time.Time); ok {
		return Time(t), nil
	}
	text := strings.TrimSpace(fmt.Sprint(raw))
	if len(text) >= 10 {
		text = strings.ReplaceAll(text[:10], ":", "-") + text[10:]
	}
	if len(text) > 19 {
		text = text[:19]
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", text, time.Local)
	if err != nil {
		return nil, err
	}
	return Time(t), nil
}

func coerceFlash(raw any) Value {
	var text string
	switch v := raw.(type) {
	case bool:
		return Bool(v)
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		text = fmt.Sprint(raw)
	}
	_, on := flashTokens[strings.ToLower(strings.TrimSpace(text))]
	return Bool(on)
}

// ParseDuration converts H:MM:SS and M:SS to integer seconds, and a bare
// number (optionally suffixed " s") to float seconds.
func ParseDuration(raw any) (Value, error) {
	switch v := raw.(type) {
	case float64:
		return Float(v), nil
	case int:
		return Float(float64(v)), nil
	case int64:
		return Float(float64(v)), nil
	}
	text := strings.TrimSpace(fmt.Sprint(raw))
	if m := hmsPattern.FindStringSubmatch(text); m != nil {
		return Int(atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3])), nil
	}
	if m := msPattern.FindStringSubmatch(text); m != nil {
		return Int(atoi(m[1])*60 + atoi(m[2])), nil
	}
	if m := secsPattern.FindStringSubmatch(text); m != nil {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	}
	return nil, errNoPattern
}

// ParseSize converts "<number> <unit>" with units B, KB, MB, GB (powers of
// 1024, case-insensitive) to bytes. Bare numbers, integral or decimal, are
// bytes.
func ParseSize(raw any) (Value, error) {
	switch v := raw.(type) {
	case float64:
		return Int(int64(math.Round(v))), nil
	case int:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	}
	text := strings.TrimSpace(fmt.Sprint(raw))
	m := sizePattern.FindStringSubmatch(text)
	if m == nil {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(n), nil
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil && f >= 0 && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return Int(int64(math.Round(f))), nil
		}
		return nil, errNoPattern
	}
	number, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, err
	}
	return Int(int64(math.Round(number * sizeUnits[strings.ToUpper(m[2])]))), nil
}

func coerceInt(raw any) (Value, error) {
	switch v := raw.(type) {
	case float64:
		return Int(int64(v)), nil
	case int:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	}
	m := intPattern.FindString(strings.TrimSpace(fmt.Sprint(raw)))
	if m == "" {
		return nil, errNoPattern
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func atoi(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
