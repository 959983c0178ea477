package organizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mediasort/internal/fileutil"
	"mediasort/internal/services"
)

// Syncer transfers one file into a destination directory. move removes the
// source once the copy is complete.
type Syncer interface {
	Transfer(ctx context.Context, src, dstDir string, move bool) error
}

// RsyncSyncer delegates transfers to rsync, preserving times, permissions and
// special files.
type RsyncSyncer struct {
	Binary string
	Exec   services.Executor
}

// NewRsyncSyncer builds a syncer using the system executor.
func NewRsyncSyncer(binary string) *RsyncSyncer {
	return &RsyncSyncer{Binary: binary, Exec: services.CommandExecutor{}}
}

// Args returns the rsync argument list for a transfer.
func (s *RsyncSyncer) Args(src, dstDir string, move bool) []string {
	args := []string{"-rlptD"}
	if move {
		args = append(args, "--remove-source-files")
	}
	return append(args, src, strings.TrimSuffix(dstDir, "/")+"/")
}

func (s *RsyncSyncer) Transfer(ctx context.Context, src, dstDir string, move bool) error {
	binary := strings.TrimSpace(s.Binary)
	if binary == "" {
		binary = "rsync"
	}
	exec := s.Exec
	if exec == nil {
		exec = services.CommandExecutor{}
	}
	if err := exec.Run(ctx, binary, s.Args(src, dstDir, move), nil); err != nil {
		return fmt.Errorf("rsync %s: %w", filepath.Base(src), err)
	}
	return nil
}

// NativeSyncer transfers in-process: rename when possible, verified copy
// across filesystems.
type NativeSyncer struct{}

func (NativeSyncer) Transfer(_ context.Context, src, dstDir string, move bool) error {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	dst := filepath.Join(dstDir, filepath.Base(src))
	if move {
		return fileutil.MoveFile(src, dst)
	}
	return fileutil.CopyFileVerified(src, dst)
}

// NewSyncer picks the transfer implementation named by method.
func NewSyncer(method, rsyncBinary string) (Syncer, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", "rsync":
		return NewRsyncSyncer(rsyncBinary), nil
	case "native":
		return NativeSyncer{}, nil
	default:
		return nil, fmt.Errorf("unknown transfer method %q", method)
	}
}
