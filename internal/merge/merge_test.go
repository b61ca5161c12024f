package merge

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"enrollments-backend/internal/analytics"
	"enrollments-backend/internal/chrono"
	"enrollments-backend/internal/enrollment"
	"enrollments-backend/internal/normalize"
	"enrollments-backend/internal/telemetry"
	"enrollments-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

var mergeTime = time.Date(2024, time.September, 1, 8, 30, 0, 0, timezone.Location)

type fixture struct {
	dir    string
	cfg    Config
	scrape string
}

func newFixture(t *testing.T) fixture {
	dir := t.TempDir()
	colleges := filepath.Join(dir, "Rubric2College.csv")
	require.NoError(t, os.WriteFile(colleges, []byte("Rubric,CollegeCode\nMATH,CSE\n"), 0666))

	return fixture{
		dir: dir,
		cfg: Config{
			ArchivePath:   filepath.Join(dir, "all_enrollments.csv"),
			BackupDir:     filepath.Join(dir, "backups"),
			ParquetPath:   filepath.Join(dir, "enrollments.parquet"),
			CollegesPath:  colleges,
			SemestersPath: filepath.Join(dir, "semesters.json"),
			Clock:         chrono.NewFixedTime(mergeTime),
		},
		scrape: filepath.Join(dir, "scrape.csv"),
	}
}

func archiveRow(id, number string, term enrollment.Term, title string) enrollment.Section {
	s := row(id, number, term, title)
	s.Credits = "3"
	s.TuitionUnit = enrollment.PerCourse
	s.TuitionResident = "$1,000.00"
	s.TuitionNonResident = "$1,200.00"
	s.CourseFees = normalize.ZeroDollars
	s.BookCost = normalize.ZeroDollars
	s.Timestamp = 1718000000
	return s
}

func (f fixture) writeArchive(t *testing.T, rows ...enrollment.Section) []byte {
	require.NoError(t, enrollment.WriteFile(f.cfg.ArchivePath, enrollment.ArchiveLayout, rows))
	data, err := os.ReadFile(f.cfg.ArchivePath)
	require.NoError(t, err)
	return data
}

func (f fixture) writeScrape(t *testing.T, rows ...enrollment.Section) {
	require.NoError(t, enrollment.WriteFile(f.scrape, enrollment.ScrapeLayout, rows))
}

func (f fixture) archive(t *testing.T) []byte {
	data, err := os.ReadFile(f.cfg.ArchivePath)
	require.NoError(t, err)
	return data
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	original := f.writeArchive(t,
		archiveRow("000100", "100", "20243", "a"),
		archiveRow("000127", "127", "20245", "a"),
	)

	updated := archiveRow("000127", "127", "20245", "b")
	updated.Enrolled = 25
	inserted := archiveRow("000229", "229", "20245", "b")
	inserted.TuitionResident = "n/a"
	inserted.Location = "Bridges zz260"
	f.writeScrape(t, updated, inserted)

	result, err := Run(context.Background(), f.cfg, f.scrape)
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)
	require.Equal(t, 1, result.Updated)
	require.Equal(t, 3, result.Total)
	require.Equal(t, "inserted: 1, updated: 1, total: 3", result.Summary())

	require.Equal(t, filepath.Join(f.cfg.BackupDir, "all_enrollments_backup_20240901_083000.csv"), result.BackupPath)
	backup, err := os.ReadFile(result.BackupPath)
	require.NoError(t, err)
	require.Equal(t, original, backup)

	rows, err := enrollment.ReadFile(f.cfg.ArchivePath)
	require.NoError(t, err)
	require.Equal(t, []string{"000100 20243 a", "000127 20245 b", "000229 20245 b"}, titles(rows))
	require.Equal(t, 25, rows[1].Enrolled)
	require.Equal(t, normalize.ZeroDollars, rows[2].TuitionResident)
	require.Equal(t, "Bridges 260", rows[2].Location)

	reader, err := analytics.Open(context.Background(), f.cfg.ParquetPath)
	require.NoError(t, err)
	defer reader.Close()
	published, err := reader.Query(context.Background(), analytics.Filter{AllTerms: true})
	require.NoError(t, err)
	require.Len(t, published, 3)
	require.Equal(t, "Fall 2023", published[0].Term)
	require.Equal(t, "CSE", *published[0].College)
	require.Equal(t, normalize.DefaultDeliveryMethod, published[0].DeliveryMethod)

	data, err := os.ReadFile(f.cfg.SemestersPath)
	require.NoError(t, err)
	var semesters []normalize.Semester
	require.NoError(t, json.Unmarshal(data, &semesters))
	require.Equal(t, []normalize.Semester{
		{YearTerm: "20245", Term: "Spring 2024"},
		{YearTerm: "20243", Term: "Fall 2023"},
	}, semesters)
}

func TestRunEmptyScrape(t *testing.T) {
	f := newFixture(t)
	original := f.writeArchive(t,
		archiveRow("000100", "100", "20243", "a"),
		archiveRow("000127", "127", "20245", "a"),
	)
	f.writeScrape(t)

	result, err := Run(context.Background(), f.cfg, f.scrape)
	require.NoError(t, err)
	require.Equal(t, 0, result.Inserted)
	require.Equal(t, 0, result.Updated)
	require.Equal(t, 2, result.Total)
	require.FileExists(t, result.BackupPath)
	require.Equal(t, original, f.archive(t))
}

func TestRunIdempotent(t *testing.T) {
	f := newFixture(t)
	f.writeArchive(t, archiveRow("000100", "100", "20243", "a"))
	f.writeScrape(t,
		archiveRow("000100", "100", "20243", "b"),
		archiveRow("000229", "229", "20245", "b"),
	)

	first, err := Run(context.Background(), f.cfg, f.scrape)
	require.NoError(t, err)
	once := f.archive(t)

	second, err := Run(context.Background(), f.cfg, f.scrape)
	require.NoError(t, err)
	require.Equal(t, once, f.archive(t))
	require.Equal(t, 0, second.Inserted)
	require.Equal(t, 2, second.Updated)

	// same clock, the second backup must not overwrite the first
	require.NotEqual(t, first.BackupPath, second.BackupPath)
	require.Equal(t, "all_enrollments_backup_20240901_083000_1.csv", filepath.Base(second.BackupPath))
	backup, err := os.ReadFile(second.BackupPath)
	require.NoError(t, err)
	require.Equal(t, once, backup)
}

func TestRunMissingArchive(t *testing.T) {
	f := newFixture(t)
	f.writeScrape(t, archiveRow("000100", "100", "20243", "a"))

	_, err := Run(context.Background(), f.cfg, f.scrape)
	require.True(t, errors.Is(err, ErrArchiveMissing))

	cfg := f.cfg
	cfg.Bootstrap = true
	result, err := Run(context.Background(), cfg, f.scrape)
	require.NoError(t, err)
	require.Empty(t, result.BackupPath)
	require.Equal(t, 1, result.Inserted)
	require.FileExists(t, f.cfg.ArchivePath)
}

func TestRunUnparseableCurrency(t *testing.T) {
	f := newFixture(t)
	original := f.writeArchive(t, archiveRow("000100", "100", "20243", "a"))
	bad := archiveRow("000229", "229", "20245", "b")
	bad.TuitionResident = "call the office"
	f.writeScrape(t, bad)

	_, err := Run(context.Background(), f.cfg, f.scrape)
	require.True(t, errors.Is(err, normalize.ErrUnparseableCurrency))
	require.Equal(t, original, f.archive(t))
	require.NoFileExists(t, f.cfg.ParquetPath)
}

func TestRunBackupFailure(t *testing.T) {
	f := newFixture(t)
	original := f.writeArchive(t, archiveRow("000100", "100", "20243", "a"))
	f.writeScrape(t, archiveRow("000229", "229", "20245", "b"))

	cfg := f.cfg
	cfg.BackupDir = filepath.Join(f.dir, "not-a-dir")
	require.NoError(t, os.WriteFile(cfg.BackupDir, nil, 0666))

	_, err := Run(context.Background(), cfg, f.scrape)
	require.True(t, errors.Is(err, ErrBackupFailed))
	require.Equal(t, original, f.archive(t))
}

func TestRunReportsLegacyDuplicates(t *testing.T) {
	f := newFixture(t)
	f.writeArchive(t,
		archiveRow("000100", "100", "20243", "old"),
		archiveRow("100", "100", "20243", "new"),
	)
	f.writeScrape(t)

	recorder := telemetry.NewRecorderAPI()
	result, err := New(f.cfg, recorder).Run(context.Background(), f.scrape)
	require.NoError(t, err)
	require.Equal(t, 1, result.Collapsed)
	require.Equal(t, 1, result.Total)
	require.Len(t, recorder.Reports("warning", report_merge_legacy_duplicate), 1)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{ArchivePath: filepath.Join("data", "all_enrollments.csv")}.WithDefaults()
	require.Equal(t, filepath.Join("data", "backups"), cfg.BackupDir)
	require.NotNil(t, cfg.Clock)
}
