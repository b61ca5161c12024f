package commands

import (
	"fmt"
	"log/slog"
	"time"

	"enrollments-backend/internal/collector"
	"enrollments-backend/lib/serviceutil"
	"enrollments-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	scrapeYearTerm string
	scrapeCidList  string
	scrapeCampusID int
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeYearTerm, "year-term", "", "Scrape every subject of this term code, for example 20253.")
	scrapeCmd.Flags().StringVar(&scrapeCidList, "cid-list", "", `Scrape the courses listed in this csv (columns "ID #" and "year_term").`)
	scrapeCmd.Flags().IntVar(&scrapeCampusID, "campus-id", 0, "The campus to scrape, defaults to the configured campus.")
	rootCmd.AddCommand(scrapeCmd)
}

func scrapeRequest() (collector.Request, error) {
	if (scrapeYearTerm == "") == (scrapeCidList == "") {
		return collector.Request{}, fmt.Errorf("%w: pass either --year-term or --cid-list", collector.ErrUsage)
	}
	if scrapeYearTerm != "" {
		return collector.Request{Term: scrapeYearTerm}, nil
	}
	pairs, err := collector.ReadPairs(scrapeCidList)
	if err != nil {
		return collector.Request{}, err
	}
	return collector.Request{Pairs: pairs}, nil
}

func campusID() int {
	if scrapeCampusID != 0 {
		return scrapeCampusID
	}
	return cfg.CampusID
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape (--year-term <term> | --cid-list <ids.csv>) [--campus-id <id>]",
	Short: "Scrapes enrollments from the registration portal into a new results directory.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		req, err := scrapeRequest()
		if err != nil {
			serviceutil.Fatal("invalid scrape request", err)
		}

		telemetry.InstrumentPerfStats(cmd.Context(), 30*time.Second)

		t1 := time.Now()
		result, err := runScrape(cmd.Context(), req, campusID())
		if err != nil {
			serviceutil.Fatal("scrape failed", err)
		}
		slog.Info("scrape time", "seconds", time.Since(t1).Seconds())

		fmt.Println(result.Summary())
		fmt.Println(result.OutputPath)
	},
}
