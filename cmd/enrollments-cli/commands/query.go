package commands

import (
	"fmt"
	"strconv"
	"log/slog"
	"strings"

	"enrollments-backend/internal/analytics"
	"enrollments-backend/internal/enrollment"
	"enrollments-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	queryFilter  analytics.Filter
	queryTerm    string
	queryFrom    string
	queryTo      string
	querySummary bool
)

func init() {
	flags := queryCmd.Flags()
	flags.StringVar(&queryFilter.Subject, "subject", "", "Course rubric, for example MATH.")
	flags.StringVar(&queryFilter.College, "college", "", "Owning college code.")
	flags.StringVar(&queryFilter.Number, "number", "", "Exact course number.")
	flags.StringVar(&queryFilter.NumberPrefix, "number-prefix", "", "Course number prefix, for example 1 for 100 level courses.")
	flags.StringVar(&queryFilter.LASCArea, "lasc-area", "", "LASC area, matched as a case insensitive substring.")
	flags.BoolVar(&queryFilter.LASC, "lasc", false, "Only sections that carry a LASC area.")
	flags.BoolVar(&queryFilter.WritingIntensive, "wi", false, "Only writing intensive sections.")
	flags.BoolVar(&queryFilter.Online18, "online18", false, "Only 18 online sections.")
	flags.StringVar(&queryTerm, "term", "", "Exact term code.")
	flags.StringVar(&queryFrom, "from", "", "First term code of a range.")
	flags.StringVar(&queryTo, "to", "", "Last term code of a range.")
	flags.BoolVar(&queryFilter.AllTerms, "all-terms", false, "Do not default to the most recent term.")
	flags.BoolVar(&querySummary, "summary", false, "Print seat, credit hour and tuition totals.")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query [flags]",
	Short: "Queries the analytical table.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		filter := queryFilter
		filter.Term = enrollment.Term(queryTerm)
		filter.TermFrom = enrollment.Term(queryFrom)
		filter.TermTo = enrollment.Term(queryTo)

		reader, err := analytics.Open(ctx, cfg.Parquet)
		if err != nil {
			serviceutil.Fatal("failed to open analytical table", err)
		}
		defer reader.Close()

		rows, err := reader.Query(ctx, filter)
		if err != nil {
			reader.Close()
			serviceutil.Fatal("query failed", err)
		}

		if len(rows) == 0 && filter.Subject != "" {
			suggestions, err := reader.SuggestSubjects(ctx, filter.Subject, 3)
			if err != nil {
				slog.WarnContext(ctx, "failed to suggest subjects", "err", err)
			}
			if len(suggestions) > 0 {
				fmt.Printf("no sections for %s, did you mean %s?\n", strings.ToUpper(filter.Subject), strings.Join(suggestions, ", "))
				return
			}
		}

		t := newTable()
		t.AppendHeader(table.Row{"Term", "ID #", "Subj", "#", "Sec", "Title", "Crds", "Enrolled", "Size", "Status", "Instructor", "LASC/WI"})
		for _, row := range rows {
			t.AppendRow(table.Row{
				row.Term, row.CourseID, row.Rubric, row.Number, row.Section, row.Title,
				row.Credits, row.Enrolled, row.Size, row.Status, row.Instructor, row.LASC,
			})
		}
		t.Render()

		if querySummary {
			summary := analytics.Summarize(rows)
			s := newTable()
			s.AppendHeader(table.Row{"Sections", "SCH", "Seats", "Filled", "Empty", "Tuition"})
			s.AppendRow(table.Row{
				summary.Sections,
				strconv.FormatFloat(summary.CreditHours, 'f', -1, 64),
				summary.SeatsAvailable,
				summary.SeatsFilled,
				summary.SeatsEmpty,
				fmt.Sprintf("$%.2f", summary.TuitionRevenue),
			})
			s.Render()
		}
	},
}
