package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// runLogTimeLayout keeps millisecond precision so per-file progress lines in a
// run log can be ordered and timed.
const runLogTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// newJSONHandler renders one JSON object per line. The record time is written
// as "ts"; time-valued attributes such as capture dates use the database
// layout so a run log can be matched against stored records.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) == 0 {
				switch attr.Key {
				case slog.TimeKey:
					if attr.Value.Kind() == slog.KindTime {
						attr.Key = "ts"
						attr.Value = slog.StringValue(attr.Value.Time().Local().Format(runLogTimeLayout))
					}
					return attr
				case slog.LevelKey:
					attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
					return attr
				case slog.SourceKey:
					if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
						attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
					}
					return attr
				}
			}
			if attr.Value.Kind() == slog.KindTime {
				attr.Value = slog.StringValue(attr.Value.Time().Format(timeValueLayout))
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}
