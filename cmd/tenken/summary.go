package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aretw0/tenken/pkg/core"
	"github.com/aretw0/tenken/pkg/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show completed answers per area",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		out := cmd.OutOrStdout()
		snap := e.sess.Snapshot()
		r := report.Build(snap)
		total := snap.Schema.ItemCount()

		for _, area := range r.Areas {
			fmt.Fprintf(out, "%s %s  %d/%d  %s\n", activeMarker(area.ID == snap.ActiveAreaID),
				color.New(color.Bold).Sprint(area.Name), area.Counts.Total(), total, formatCounts(area.Counts, e.locale))
			for _, sec := range area.Sections {
				fmt.Fprintf(out, "    %s\n", sec.Title)
				for _, it := range sec.Items {
					line := fmt.Sprintf("      %s  %s", statusBadge(it.Status, e.locale), it.Title)
					if it.Note != "" {
						line += color.New(color.Faint).Sprintf("  (%s)", it.Note)
					}
					fmt.Fprintln(out, line)
				}
			}
		}
		fmt.Fprintf(out, "\n%s\n", formatCounts(r.Counts, e.locale))
		return nil
	}),
}

func formatCounts(c report.Counts, l report.Locale) string {
	return fmt.Sprintf("%s %d  %s %d  %s %d",
		statusBadge(core.StatusOK, l), c.OK,
		statusBadge(core.StatusAttention, l), c.Attention,
		statusBadge(core.StatusIssue, l), c.Issue)
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
