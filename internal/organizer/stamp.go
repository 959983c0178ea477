package organizer

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"mediasort/internal/dates"
	"mediasort/internal/services"
)

// StampResult reports the best-effort post-move stamping. It is logged and
// otherwise ignored; the move has already succeeded.
type StampResult struct {
	Tags  error
	Times error
}

// OK reports whether every stamping step succeeded.
func (r StampResult) OK() bool {
	return r.Tags == nil && r.Times == nil
}

// Err joins the step failures, or returns nil.
func (r StampResult) Err() error {
	return errors.Join(r.Tags, r.Times)
}

// Stamper writes a resolved capture date into a file's tags and file times.
type Stamper struct {
	Exiftool string
	Touch    string
	Exec     services.Executor
}

// NewStamper builds a stamper over the system executor. An empty touch
// binary sets file times in-process.
func NewStamper(exiftool, touch string) *Stamper {
	return &Stamper{Exiftool: exiftool, Touch: touch, Exec: services.CommandExecutor{}}
}

// TagArgs returns the exiftool arguments stamping t onto path.
func TagArgs(path string, t time.Time) []string {
	value := dates.FormatTag(t)
	return []string{
		"-CreateDate=" + value,
		"-ModifyDate=" + value,
		"-DateTimeOriginal=" + value,
		"-overwrite_original",
		path,
	}
}

// Stamp sets CreateDate, ModifyDate and DateTimeOriginal, then the
// modification and access times, on path.
func (s *Stamper) Stamp(ctx context.Context, path string, t time.Time) StampResult {
	var res StampResult
	if s == nil {
		return res
	}
	exec := s.Exec
	if exec == nil {
		exec = services.CommandExecutor{}
	}
	if bin := strings.TrimSpace(s.Exiftool); bin != "" {
		if err := exec.Run(ctx, bin, TagArgs(path, t), nil); err != nil {
			res.Tags = services.Wrap(services.ErrStamping, "organizer", "stamp tags", "exiftool could not write dates", err)
		}
	}
	res.Times = s.setTimes(ctx, exec, path, t)
	return res
}

func (s *Stamper) setTimes(ctx context.Context, exec services.Executor, path string, t time.Time) error {
	if bin := strings.TrimSpace(s.Touch); bin != "" {
		err := exec.Run(ctx, bin, []string{"-d", dates.Format(t), path}, nil)
		if err == nil {
			return nil
		}
	}
	if err := os.Chtimes(path, t, t); err != nil {
		return services.Wrap(services.ErrStamping, "organizer", "stamp times", "could not set file times", err)
	}
	return nil
}
