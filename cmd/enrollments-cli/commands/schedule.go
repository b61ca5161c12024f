package commands

import (
	"log/slog"
	"time"

	"enrollments-backend/internal/chrono"
	"enrollments-backend/internal/collector"
	"enrollments-backend/internal/telemetry"
	"enrollments-backend/lib/serviceutil"
	libtelemetry "enrollments-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	scheduleSpec     string
	scheduleYearTerm string
)

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSpec, "cron", "0 5 * * *", "When to run, a cron spec in the registrar's timezone.")
	scheduleCmd.Flags().StringVar(&scheduleYearTerm, "year-term", "", "The term code to scrape on every run.")
	scheduleCmd.Flags().IntVar(&scrapeCampusID, "campus-id", 0, "The campus to scrape, defaults to the configured campus.")
	scheduleCmd.MarkFlagRequired("year-term")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule --year-term <term> [--cron <spec>]",
	Short: "Scrapes a term and merges the result into the archive on a schedule until interrupted.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		libtelemetry.InstrumentPerfStats(ctx, time.Minute)

		cron := chrono.NewStandardCron(telemetry.SlogAPI{})
		err := cron.Cron(scheduleSpec, func() {
			result, err := runScrape(ctx, collector.Request{Term: scheduleYearTerm}, campusID())
			if err != nil {
				slog.ErrorContext(ctx, "scheduled scrape failed", "err", err)
				return
			}
			merged, err := runMerge(ctx, result.OutputPath, false)
			if err != nil {
				slog.ErrorContext(ctx, "scheduled merge failed", "err", err)
				return
			}
			slog.InfoContext(ctx, "scheduled run complete", "scrape", result.Summary(), "merge", merged.Summary())
		})
		if err != nil {
			serviceutil.Fatal("invalid cron spec", err)
		}

		slog.InfoContext(ctx, "scheduler started", "cron", scheduleSpec, "term", scheduleYearTerm)
		<-ctx.Done()
		cron.Stop()
	},
}
