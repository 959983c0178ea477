package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExtraction     = errors.New("metadata extraction error")
	ErrDateResolution = errors.New("date resolution error")
	ErrValidation     = errors.New("validation error")
	ErrStoreWrite     = errors.New("store write error")
	ErrTransfer       = errors.New("transfer error")
	ErrStamping       = errors.New("stamping error")
	ErrConfiguration  = errors.New("configuration error")
	ErrExternalTool   = errors.New("external tool error")
	ErrNotFound       = errors.New("not found")
	ErrTransient      = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker. The marker should be one of the exported sentinel errors
// above so callers can classify failures with errors.Is.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Outcome is the per-file result class a failure maps to in run counters.
type Outcome string

const (
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeUnmatched Outcome = "unmatched"
)

// Classify maps an error to the counter it should land in. Configuration and
// validation problems are skips, unresolved dates are unmatched, everything
// else is a failure.
func Classify(err error) Outcome {
	switch {
	case errors.Is(err, ErrDateResolution):
		return OutcomeUnmatched
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return OutcomeSkipped
	default:
		return OutcomeFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
