package services_test

import (
	"context"
	"errors"
	"testing"

	"mediasort/internal/services"
)

type stubExecutor struct {
	lines []string
	err   error
	args  [][]string
}

func (s *stubExecutor) Run(_ context.Context, _ string, args []string, onStdout func(string)) error {
	s.args = append(s.args, append([]string(nil), args...))
	for _, line := range s.lines {
		onStdout(line)
	}
	return s.err
}

func TestOutputJoinsLines(t *testing.T) {
	exec := &stubExecutor{lines: []string{"[{", `"a": 1`, "}]"}}
	out, err := services.Output(context.Background(), exec, "exiftool", "-j", "x.jpg")
	if err != nil {
		t.Fatalf("Output returned error: %v", err)
	}
	if out != "[{\n\"a\": 1\n}]\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(exec.args) != 1 || exec.args[0][0] != "-j" {
		t.Fatalf("unexpected args %v", exec.args)
	}
}

func TestOutputPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := services.Output(context.Background(), &stubExecutor{err: boom}, "rsync"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
