package commands

import (
	"time"

	"enrollments-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runsLimit int

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "The number of runs to show.")
	rootCmd.AddCommand(runsCmd)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}

var runsCmd = &cobra.Command{
	Use:   "runs [--limit <n>]",
	Short: "Lists the latest scrape and merge runs.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ledger, closeLedger, err := openLedger(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to open run ledger", err)
		}
		defer closeLedger()

		runs, err := ledger.Latest(cmd.Context(), runsLimit)
		if err != nil {
			closeLedger()
			serviceutil.Fatal("failed to list runs", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Id", "Kind", "Started", "Finished", "Status", "Processed", "Failed", "Skipped", "Inserted", "Updated", "Total", "Output", "Error"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.Id, run.Kind, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Status,
				run.Processed, run.Failed, run.Skipped, run.Inserted, run.Updated, run.Total,
				run.Output, run.Error,
			})
		}
		t.Render()
	},
}
