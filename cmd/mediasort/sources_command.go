package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediasort/internal/sources"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List removable media directories under the candidate mount roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			candidates, err := sources.Discover(cfg.Organizer.CandidateRoots)
			if err != nil {
				return fmt.Errorf("discover sources: %w", err)
			}
			out := cmd.OutOrStdout()
			if pick {
				selected, err := sources.Pick(candidates, cmd.InOrStdin(), out)
				if err != nil {
					return err
				}
				for _, path := range selected {
					fmt.Fprintln(out, path)
				}
				return nil
			}
			if len(candidates) == 0 {
				fmt.Fprintln(out, "No candidate media sources found.")
				return nil
			}
			rows := make([][]string, 0, len(candidates))
			for i, path := range candidates {
				rows = append(rows, []string{strconv.Itoa(i + 1), path})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Directory"}, rows, []columnAlignment{alignRight, alignLeft}, shouldColorize(out)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&pick, "pick", false, "Select sources interactively and print the chosen paths")
	return cmd
}
