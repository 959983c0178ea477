package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediasort/internal/deps"
	"mediasort/internal/organizer"
	"mediasort/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and directory access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := deps.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := paint("ok", ansiGreen, colorize)
				if !s.Available {
					state = paint("missing", ansiRed, colorize)
					if s.Optional {
						state = paint("missing (optional)", ansiYellow, colorize)
					}
				}
				rows = append(rows, []string{s.Name, s.Command, state, s.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "Status", "Detail"}, rows, nil, colorize))

			target, err := organizer.ParseTarget(cfg.Organizer.Target)
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg, preflight.Scope{
				Sources: cfg.Organizer.Sources,
				Trees:   treesFor(cfg, target),
			})
			checkRows := make([][]string, 0, len(results))
			for _, r := range results {
				state := paint("ok", ansiGreen, colorize)
				if !r.Passed {
					state = paint("fail", ansiRed, colorize)
					if r.Optional {
						state = paint("warn", ansiYellow, colorize)
					}
				}
				checkRows = append(checkRows, []string{r.Name, state, r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil, colorize))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing", len(missing))
			}
			return preflight.FirstFailure(results)
		},
	}
}
