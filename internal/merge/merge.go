package merge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"enrollments-backend/internal/analytics"
	"enrollments-backend/internal/chrono"
	"enrollments-backend/internal/enrollment"
	"enrollments-backend/internal/normalize"
	"enrollments-backend/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("enrollments.merge")

const (
	report_merge_legacy_duplicate = "merge.legacy-duplicate"
)

// ErrArchiveMissing is returned when the archive does not exist and the
// merge is not a bootstrap.
var ErrArchiveMissing = errors.New("canonical archive does not exist")

type Config struct {
	ArchivePath string
	// BackupDir defaults to a "backups" directory next to the archive.
	BackupDir string
	// ParquetPath is skipped when empty.
	ParquetPath string
	// CollegesPath is the rubric to college mapping, every college is
	// null when empty.
	CollegesPath string
	// SemestersPath is skipped when empty.
	SemestersPath string
	// Bootstrap starts from an empty archive when ArchivePath does not
	// exist.
	Bootstrap bool
	Clock     chrono.TimeAPI
}

func (c Config) WithDefaults() Config {
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(filepath.Dir(c.ArchivePath), "backups")
	}
	if c.Clock == nil {
		c.Clock = chrono.NewStandardTime()
	}
	return c
}

type Result struct {
	Inserted int
	Updated  int
	Total    int
	// BackupPath is empty for a bootstrap.
	BackupPath string
	Collapsed  int
}

func (r Result) Summary() string {
	return fmt.Sprintf("inserted: %d, updated: %d, total: %d", r.Inserted, r.Updated, r.Total)
}

type Merger struct {
	cfg Config
	tel telemetry.API
}

func New(cfg Config, tel telemetry.API) *Merger {
	return &Merger{
		cfg: cfg.WithDefaults(),
		tel: telemetry.NewScopedAPI("merge", tel),
	}
}

// Run merges the scrape output at newPath into the configured archive
// and regenerates the derived outputs.
func Run(ctx context.Context, cfg Config, newPath string) (Result, error) {
	return New(cfg, telemetry.SlogAPI{}).Run(ctx, newPath)
}

func (m *Merger) readArchive(ctx context.Context) ([]enrollment.Section, string, error) {
	_, err := os.Stat(m.cfg.ArchivePath)
	if errors.Is(err, os.ErrNotExist) {
		if !m.cfg.Bootstrap {
			return nil, "", fmt.Errorf("%w: %s", ErrArchiveMissing, m.cfg.ArchivePath)
		}
		slog.WarnContext(ctx, "archive does not exist, starting from an empty archive", "path", m.cfg.ArchivePath)
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	backupPath, err := backup(m.cfg.ArchivePath, m.cfg.BackupDir, m.cfg.Clock.Now())
	if err != nil {
		return nil, "", err
	}
	slog.InfoContext(ctx, "backup created", "path", backupPath)

	rows, err := enrollment.ReadFile(m.cfg.ArchivePath)
	if err != nil {
		return nil, backupPath, err
	}
	return rows, backupPath, nil
}

func (m *Merger) Run(ctx context.Context, newPath string) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	result, err := m.run(ctx, newPath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}
	span.SetAttributes(
		attribute.Int("inserted", result.Inserted),
		attribute.Int("updated", result.Updated),
		attribute.Int("total", result.Total),
	)
	return result, nil
}

func (m *Merger) run(ctx context.Context, newPath string) (Result, error) {
	var result Result

	batch, err := enrollment.ReadFile(newPath)
	if err != nil {
		return result, err
	}
	slog.InfoContext(ctx, "loaded scrape output", "path", newPath, "rows", len(batch))

	archive, backupPath, err := m.readArchive(ctx)
	result.BackupPath = backupPath
	if err != nil {
		return result, err
	}
	slog.InfoContext(ctx, "loaded archive", "rows", len(archive))

	_, upsertSpan := tracer.Start(ctx, "Upsert")
	upserted := Upsert(archive, batch)
	upsertSpan.End()

	for _, key := range upserted.Collapsed {
		m.tel.ReportWarning(report_merge_legacy_duplicate, key.String())
	}
	for i := range upserted.Rows {
		normalize.FixArchiveRow(&upserted.Rows[i])
	}

	result.Inserted = upserted.Inserted
	result.Updated = upserted.Updated
	result.Total = len(upserted.Rows)
	result.Collapsed = len(upserted.Collapsed)

	// every derived output is computed before anything is written
	var analytical []normalize.Analytical
	if m.cfg.ParquetPath != "" {
		colleges := normalize.Colleges{}
		if m.cfg.CollegesPath != "" {
			colleges, err = normalize.ReadColleges(m.cfg.CollegesPath)
			if err != nil {
				return result, err
			}
		}
		analytical, err = normalize.ToAnalyticalRows(upserted.Rows, colleges)
		if err != nil {
			return result, err
		}
	}
	var semesters []byte
	if m.cfg.SemestersPath != "" {
		semesters, err = json.MarshalIndent(normalize.Semesters(upserted.Rows), "", "  ")
		if err != nil {
			return result, err
		}
	}

	err = os.MkdirAll(filepath.Dir(m.cfg.ArchivePath), 0777)
	if err != nil {
		return result, err
	}
	err = enrollment.WriteFile(m.cfg.ArchivePath, enrollment.ArchiveLayout, upserted.Rows)
	if err != nil {
		return result, fmt.Errorf("write archive: %w", err)
	}
	if m.cfg.ParquetPath != "" {
		err = analytics.WriteParquet(ctx, m.cfg.ParquetPath, analytical)
		if err != nil {
			return result, fmt.Errorf("write analytical table: %w", err)
		}
	}
	if m.cfg.SemestersPath != "" {
		err = writeFileAtomic(m.cfg.SemestersPath, semesters)
		if err != nil {
			return result, fmt.Errorf("write semesters: %w", err)
		}
	}

	slog.InfoContext(
		ctx, "merge complete",
		"inserted", result.Inserted,
		"updated", result.Updated,
		"total", result.Total,
	)
	return result, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
