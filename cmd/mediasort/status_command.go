package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediasort/internal/media"
	"mediasort/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show record and processed-file counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.OpenFromConfig(cfg, true)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if st.Ephemeral() {
				fmt.Fprintf(out, "Database: %s (not created yet)\n", cfg.Store.Path)
			} else {
				fmt.Fprintf(out, "Database: %s\n", st.Path())
			}

			records, err := st.RecordCounts(cmd.Context())
			if err != nil {
				return err
			}
			processed, err := st.ProcessedCounts(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(media.Categories()))
			for _, category := range media.Categories() {
				rows = append(rows, []string{
					string(category),
					strconv.Itoa(records[category]),
					strconv.Itoa(processed[category]),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Category", "Records", "Processed"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight}, colorize))

			if recent <= 0 {
				return nil
			}
			markers, err := st.RecentMarkers(cmd.Context(), recent)
			if err != nil {
				return err
			}
			if len(markers) == 0 {
				return nil
			}
			markerRows := make([][]string, 0, len(markers))
			for _, m := range markers {
				at := ""
				if !m.ProcessedAt.IsZero() {
					at = m.ProcessedAt.Local().Format("2006-01-02 15:04:05")
				}
				markerRows = append(markerRows, []string{at, string(m.Category), m.Path})
			}
			fmt.Fprintln(out, "Recently processed:")
			fmt.Fprintln(out, renderTable([]string{"Processed At", "Category", "Path"}, markerRows, nil, colorize))
			return nil
		},
	}
	cmd.Flags().IntVarP(&recent, "recent", "n", 10, "Number of recently processed files to list (0 hides the list)")
	return cmd
}
