package dates

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"mediasort/internal/logging"
)

// SourceFilename marks a resolution derived from the file name.
const SourceFilename = "filename"

const layout = "2006-01-02 15:04:05"

// DefaultFields is the candidate priority list: original-capture fields first,
// modify and filesystem fallbacks last.
var DefaultFields = []string{
	"DateTimeOriginal",
	"CreateDate",
	"ModifyDate",
	"FileCreateDate",
	"MediaCreateDate",
	"MediaModifyDate",
	"TrackCreateDate",
	"TrackModifyDate",
	"FileModifyDate",
}

var (
	datetimePattern = regexp.MustCompile(`\d{4}[:\-]\d{2}[:\-]\d{2} \d{2}:\d{2}:\d{2}`)
	filenamePattern = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})[_\-]?(\d{2})(\d{2})(\d{2})`)
	devicePattern   = regexp.MustCompile(`^(?i:PXL|IMG|VID|MVIMG|DJI|Screenshot|PANO)[_\-](\d{8})(?:[_\-]?(\d{6}))?`)
	bareStampPrefix = regexp.MustCompile(`^(\d{8})[_\-](\d{6})`)
	sentinelPrefix  = []string{"0000", "1970", "None"}
)

// Candidate is one accepted timestamp and the field it came from.
type Candidate struct {
	Field string
	Time  time.Time
}

// Resolution is the outcome of resolving a capture datetime.
type Resolution struct {
	Time       time.Time
	Source     string
	Candidates []Candidate
	OK         bool
}

// Resolver picks the most trustworthy capture datetime for a file.
type Resolver struct {
	fields []string
	logger *slog.Logger
}

// NewResolver builds a resolver over the ordered candidate fields. An empty
// list selects DefaultFields.
func NewResolver(fields []string, logger *slog.Logger) *Resolver {
	cleaned := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			cleaned = append(cleaned, field)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultFields...)
	}
	return &Resolver{fields: cleaned, logger: logging.NewComponentLogger(logger, "dates")}
}

// Fields returns the candidate field list.
func (r *Resolver) Fields() []string {
	return append([]string(nil), r.fields...)
}

// Resolve returns the oldest accepted candidate from doc, falling back to the
// file name when no candidate survives sanitization.
func (r *Resolver) Resolve(doc map[string]any, fileName string) Resolution {
	candidates := r.Candidates(doc)
	if len(candidates) > 0 {
		selected := candidates[0]
		for _, c := range candidates[1:] {
			if c.Time.Before(selected.Time) {
				selected = c
			}
		}
		r.logger.Debug("using metadata datetime",
			logging.String("field", selected.Field),
			logging.String("value", selected.Time.Format(layout)),
			logging.Int("candidates", len(candidates)),
		)
		return Resolution{Time: selected.Time, Source: selected.Field, Candidates: candidates, OK: true}
	}

	if t, ok := FromFilename(fileName); ok {
		r.logger.Debug("using filename datetime",
			logging.String("file", fileName),
			logging.String("value", t.Format(layout)),
		)
		return Resolution{Time: t, Source: SourceFilename, OK: true}
	}
	r.logger.Debug("no datetime resolved", logging.String("file", fileName))
	return Resolution{}
}

// Candidates returns every accepted candidate in field priority order.
func (r *Resolver) Candidates(doc map[string]any) []Candidate {
	if len(doc) == 0 {
		return nil
	}
	normalized := make(map[string]any, len(doc))
	for key, value := range doc {
		normalized[normalizeKey(key)] = value
	}
	var out []Candidate
	for _, field := range r.fields {
		raw, ok := normalized[normalizeKey(field)]
		if !ok || raw == nil {
			continue
		}
		t, ok := Sanitize(raw)
		if !ok {
			r.logger.Debug("rejected datetime", logging.String("field", field), logging.String("raw", fmt.Sprint(raw)))
			continue
		}
		out = append(out, Candidate{Field: field, Time: t})
	}
	return out
}

// Sanitize parses a raw tool value into a datetime. Empty values, sentinels
// (0000…, 1970…, None) and values without a date-time shape are rejected.
func Sanitize(raw any) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() || v.Year() <= 1970 {
			return time.Time{}, false
		}
		return v, true
	}
	text := strings.TrimSpace(fmt.Sprint(raw))
	if text == "" {
		return time.Time{}, false
	}
	for _, prefix := range sentinelPrefix {
		if strings.HasPrefix(text, prefix) {
			return time.Time{}, false
		}
	}
	match := datetimePattern.FindString(text)
	if match == "" {
		return time.Time{}, false
	}
	cleaned := strings.ReplaceAll(match[:10], ":", "-") + match[10:]
	parsed, err := time.ParseInLocation(layout, cleaned, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// FromFilename finds YYYYMMDD, an optional separator, and HHMMSS anywhere in name.
func FromFilename(name string) (time.Time, bool) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	return parseParts(m[1]+m[2]+m[3], m[4]+m[5]+m[6])
}

// FromDeviceName recognizes camera and phone naming conventions such as
// PXL_20230615_141055123.jpg or DJI_20250619224111_0001_D.MP4. Names with a
// date but no time resolve to midnight.
func FromDeviceName(name string) (time.Time, bool) {
	if m := devicePattern.FindStringSubmatch(name); m != nil {
		return parseParts(m[1], m[2])
	}
	if m := bareStampPrefix.FindStringSubmatch(name); m != nil {
		return parseParts(m[1], m[2])
	}
	return time.Time{}, false
}

func parseParts(date, clock string) (time.Time, bool) {
	if clock == "" {
		clock = "000000"
	}
	t, err := time.ParseInLocation("20060102150405", date+clock, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Format renders t the way the store and the metadata tool expect.
func Format(t time.Time) string {
	return t.Format(layout)
}

// FormatTag renders t in exiftool tag syntax (colons in the date part).
func FormatTag(t time.Time) string {
	return t.Format("2006:01:02 15:04:05")
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, " ", ""))
}
