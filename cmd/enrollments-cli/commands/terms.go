package commands

import (
	"enrollments-backend/internal/analytics"
	"enrollments-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(termsCmd)
}

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "Lists the terms published in the analytical table.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reader, err := analytics.Open(cmd.Context(), cfg.Parquet)
		if err != nil {
			serviceutil.Fatal("failed to open analytical table", err)
		}
		defer reader.Close()

		terms, err := reader.Terms(cmd.Context())
		if err != nil {
			reader.Close()
			serviceutil.Fatal("failed to list terms", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"year_term", "Term"})
		for _, term := range terms {
			t.AppendRow(table.Row{term.YearTerm, term.Term})
		}
		t.Render()
	},
}
