package preflight

import (
	"fmt"
	"strings"

	"mediasort/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results are reported but never block a run.
	Optional bool
}

// Scope selects which paths RunAll checks.
type Scope struct {
	// Sources are read; missing ones are reported but optional since a
	// scan simply finds nothing there.
	Sources []string
	// Trees are the destination trees a move writes into.
	Trees []config.Roots
}

// RunAll checks the state and log directories plus the paths in scope.
func RunAll(cfg *config.Config, scope Scope) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckCreatableDirectory("State directory", cfg.Paths.StateDir),
		CheckCreatableDirectory("Log directory", cfg.Paths.LogDir),
	}
	for _, src := range scope.Sources {
		res := CheckReadableDirectory("Source", src)
		res.Optional = true
		results = append(results, res)
	}
	for _, tree := range scope.Trees {
		for _, root := range []struct{ name, path string }{
			{"Photos root", tree.Photos},
			{"Videos root", tree.Videos},
			{"Dashcam root", tree.Dashcam},
			{"Social root", tree.Social},
		} {
			if strings.TrimSpace(root.path) == "" {
				continue
			}
			results = append(results, CheckCreatableDirectory(root.name, root.path))
		}
	}
	return results
}

// FirstFailure returns an error for the first failed required result.
func FirstFailure(results []Result) error {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return fmt.Errorf("%s: %s", r.Name, r.Detail)
		}
	}
	return nil
}
