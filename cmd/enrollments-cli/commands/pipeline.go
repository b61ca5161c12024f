package commands

import (
	"context"
	"time"

	"enrollments-backend/internal/collector"
	"enrollments-backend/internal/merge"
	"enrollments-backend/internal/registrar"
	"enrollments-backend/internal/runlog"
	"enrollments-backend/internal/telemetry"
	"enrollments-backend/lib/restyutil"
)

func newRegistrarClient(campusID int) (*registrar.Client, error) {
	opts := registrar.Options{
		BaseURL:           cfg.BaseURL,
		CampusID:          campusID,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		UserAgent:         cfg.UserAgent,
	}
	if cfg.HttpDumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.HttpDumpDir)
		if err != nil {
			return nil, err
		}
		opts.Output = output
	}
	return registrar.NewClient(opts)
}

// runScrape runs the collector and records the run in the ledger.
func runScrape(ctx context.Context, req collector.Request, campusID int) (collector.Result, error) {
	client, err := newRegistrarClient(campusID)
	if err != nil {
		return collector.Result{}, err
	}

	run, closeLedger := startRun(ctx, runlog.KindScrape)
	defer closeLedger()

	c := collector.New(client, collector.Config{
		DataDir:  cfg.DataDir,
		CampusID: campusID,
	}, telemetry.SlogAPI{})

	result, err := c.Run(ctx, req)
	run.finish(runlog.Counts{
		Processed: result.Processed,
		Failed:    len(result.Failed),
		Skipped:   len(result.Skipped),
		Total:     result.Rows,
		Output:    result.OutputPath,
	}, err)
	return result, err
}

// runMerge merges newPath into the archive and records the run in the
// ledger.
func runMerge(ctx context.Context, newPath string, bootstrap bool) (merge.Result, error) {
	run, closeLedger := startRun(ctx, runlog.KindMerge)
	defer closeLedger()

	m := merge.New(merge.Config{
		ArchivePath:   cfg.Archive,
		BackupDir:     cfg.BackupDir,
		ParquetPath:   cfg.Parquet,
		CollegesPath:  cfg.Colleges,
		SemestersPath: cfg.Semesters,
		Bootstrap:     bootstrap,
	}, telemetry.SlogAPI{})

	result, err := m.Run(ctx, newPath)
	run.finish(runlog.Counts{
		Inserted: result.Inserted,
		Updated:  result.Updated,
		Total:    result.Total,
		Output:   cfg.Archive,
	}, err)
	return result, err
}
