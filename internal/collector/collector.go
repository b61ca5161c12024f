package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"enrollments-backend/internal/chrono"
	"enrollments-backend/internal/enrollment"
	"enrollments-backend/internal/registrar"
	"enrollments-backend/internal/telemetry"
	"enrollments-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("enrollments.collector")

const (
	report_collector_source        = "collector.source"
	report_collector_course_detail = "collector.course-detail"
	report_collector_course_level  = "collector.course-level"
	report_collector_duplicate_key = "collector.duplicate-key"
	report_collector_cleanup       = "collector.cleanup"
)

// CombinedFileName is the name of the combined output inside a run directory.
const CombinedFileName = "all_enrollments.csv"

var (
	ErrUsage              = errors.New("exactly one of a term code or a course id list is required")
	ErrNoSources          = errors.New("no subjects or courses to scrape")
	ErrOutputExists       = errors.New("output directory already exists")
	ErrVerificationFailed = errors.New("enrollment data did not properly write to disk")
)

// Portal is the subset of the registration portal the collector reads.
type Portal interface {
	Subjects(ctx context.Context, term string) ([]string, error)
	SubjectListing(ctx context.Context, term, subject string) ([]registrar.Row, error)
	CourseListing(ctx context.Context, courseID, term string) ([]registrar.Row, error)
	CourseDetail(ctx context.Context, courseID, term string) (registrar.Detail, error)
}

type Config struct {
	// DataDir is where run directories are created.
	DataDir  string
	CampusID int
	Clock    chrono.TimeAPI
}

func (c Config) WithDefaults() Config {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.CampusID == 0 {
		c.CampusID = registrar.DefaultCampusID
	}
	if c.Clock == nil {
		c.Clock = chrono.NewStandardTime()
	}
	return c
}

// Pair identifies a single course in a single term.
type Pair struct {
	CourseID string
	Term     enrollment.Term
}

// Request selects what to scrape, either every subject of Term or every
// course in Pairs. Setting both or neither is a usage error.
type Request struct {
	Term  string
	Pairs []Pair
}

type Result struct {
	OutputDir  string
	OutputPath string
	Sources    int
	Processed  int
	// Skipped sources returned no courses.
	Skipped []string
	// Failed sources could not be fetched or parsed.
	Failed []string
	// FailedCourses are "<course id>@<term>" whose detail page could not be fetched.
	FailedCourses []string
	Rows          int
}

func (r Result) Summary() string {
	return fmt.Sprintf(
		"processed: %d, failed: %d, skipped: %d, courses: %d",
		r.Processed, len(r.Failed), len(r.Skipped), r.Rows,
	)
}

type Collector struct {
	portal Portal
	cfg    Config
	tel    telemetry.API
}

func New(portal Portal, cfg Config, tel telemetry.API) *Collector {
	return &Collector{
		portal: portal,
		cfg:    cfg.WithDefaults(),
		tel:    telemetry.NewScopedAPI("collector", tel),
	}
}

type source struct {
	// name is the subject or the course id
	name     string
	term     enrollment.Term
	isCourse bool
}

func (c *Collector) sources(ctx context.Context, req Request) ([]source, error) {
	if (req.Term != "") == (req.Pairs != nil) {
		return nil, ErrUsage
	}

	if req.Pairs != nil {
		out := make([]source, len(req.Pairs))
		for i, p := range req.Pairs {
			term, err := enrollment.ParseTerm(string(p.Term))
			if err != nil {
				return nil, fmt.Errorf("%w: course %s: %w", ErrUsage, p.CourseID, err)
			}
			out[i] = source{name: p.CourseID, term: term, isCourse: true}
		}
		if len(out) == 0 {
			return nil, ErrNoSources
		}
		return out, nil
	}

	term, err := enrollment.ParseTerm(req.Term)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	subjects, err := c.portal.Subjects(ctx, string(term))
	if err != nil {
		return nil, fmt.Errorf("list subjects for %s: %w", term, err)
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("%w: term %s, campus %d", ErrNoSources, term, c.cfg.CampusID)
	}
	out := make([]source, len(subjects))
	for i, s := range subjects {
		out[i] = source{name: s, term: term}
	}
	return out, nil
}

// OutputDir returns the run directory for a run started at the clock's
// current time.
func (c *Collector) OutputDir() string {
	name := "results_v2-" + c.cfg.Clock.Now().In(timezone.Location).Format("2006-01-02T15-04-05")
	if c.cfg.CampusID != registrar.DefaultCampusID {
		return filepath.Join(c.cfg.DataDir, strconv.Itoa(c.cfg.CampusID), name)
	}
	return filepath.Join(c.cfg.DataDir, name)
}

// Run scrapes every source of req, checkpointing each one, and writes the
// combined table. Individual sources and courses that fail are recorded
// in the result and skipped. A checkpoint holds one row per key. The
// combined table is the union of the checkpoints, except that a key
// repeated across sources (a course id list naming a pair twice) keeps
// only its last row.
func (c *Collector) Run(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	sources, err := c.sources(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	result := Result{
		OutputDir: c.OutputDir(),
		Sources:   len(sources),
	}
	result.OutputPath = filepath.Join(result.OutputDir, CombinedFileName)

	err = os.MkdirAll(filepath.Dir(result.OutputDir), 0777)
	if err != nil {
		return result, err
	}
	err = os.Mkdir(result.OutputDir, 0777)
	if errors.Is(err, os.ErrExist) {
		return result, fmt.Errorf("%w: %s", ErrOutputExists, result.OutputDir)
	}
	if err != nil {
		return result, err
	}

	slog.InfoContext(ctx, "scraping", "sources", len(sources), "campus_id", c.cfg.CampusID, "output", result.OutputDir)

	var combined []enrollment.Section
	var checkpoints []string
	for _, src := range sources {
		if ctx.Err() != nil {
			c.logSummary(ctx, result)
			return result, ctx.Err()
		}

		sections, failedCourses, err := c.scrapeSource(ctx, src)
		result.FailedCourses = append(result.FailedCourses, failedCourses...)
		if errors.Is(err, registrar.ErrCourseLevelNotFound) || errors.Is(err, context.Canceled) {
			c.logSummary(ctx, result)
			span.SetStatus(codes.Error, err.Error())
			return result, err
		}
		if err != nil {
			c.tel.ReportWarning(report_collector_source, src.name, string(src.term), err)
			result.Failed = append(result.Failed, src.name)
			continue
		}
		if sections == nil {
			slog.InfoContext(ctx, "no courses", "source", src.name, "term", src.term)
			result.Skipped = append(result.Skipped, src.name)
			continue
		}

		sections = c.dropDuplicates(sections)
		path := c.checkpointPath(result.OutputDir, src, checkpoints)
		err = enrollment.WriteFile(path, enrollment.ScrapeLayout, sections)
		if err != nil {
			c.logSummary(ctx, result)
			return result, fmt.Errorf("write checkpoint %s: %w", path, err)
		}
		checkpoints = append(checkpoints, path)

		combined = append(combined, sections...)
		result.Processed++
		slog.DebugContext(ctx, "source done", "source", src.name, "courses", len(sections))
	}

	combined = c.dropDuplicates(combined)
	result.Rows = len(combined)
	c.logSummary(ctx, result)
	c.tel.ReportCount("collector.rows", int64(result.Rows))

	err = enrollment.WriteFile(result.OutputPath, enrollment.ScrapeLayout, combined)
	if err != nil {
		return result, fmt.Errorf("write %s: %w", result.OutputPath, err)
	}
	onDisk, err := enrollment.CountRows(result.OutputPath)
	if err != nil {
		return result, fmt.Errorf("verify %s: %w", result.OutputPath, err)
	}
	if onDisk != len(combined) {
		span.SetStatus(codes.Error, "verification failed")
		return result, fmt.Errorf("%w: %s has %d rows, expected %d", ErrVerificationFailed, result.OutputPath, onDisk, len(combined))
	}

	var cleanupErrs []error
	for _, path := range checkpoints {
		cleanupErrs = append(cleanupErrs, os.Remove(path))
	}
	err = errors.Join(cleanupErrs...)
	if err != nil {
		c.tel.ReportWarning(report_collector_cleanup, err)
	}

	span.SetAttributes(
		attribute.Int("processed", result.Processed),
		attribute.Int("failed", len(result.Failed)),
		attribute.Int("skipped", len(result.Skipped)),
		attribute.Int("rows", result.Rows),
	)
	slog.InfoContext(ctx, "results saved", "path", result.OutputPath)
	return result, nil
}

func (c *Collector) logSummary(ctx context.Context, result Result) {
	slog.InfoContext(
		ctx, "scrape summary",
		"processed", result.Processed,
		"failed", len(result.Failed),
		"skipped", len(result.Skipped),
		"failed_courses", len(result.FailedCourses),
		"courses", result.Rows,
	)
	if len(result.Failed) > 0 {
		slog.WarnContext(ctx, "failed sources", "sources", result.Failed)
	}
}

// a course id that repeats across terms in a course list gets the term
// appended to its checkpoint name.
func (c *Collector) checkpointPath(dir string, src source, existing []string) string {
	path := filepath.Join(dir, src.name+".csv")
	for _, e := range existing {
		if e == path {
			return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", src.name, src.term))
		}
	}
	return path
}

func (c *Collector) dropDuplicates(rows []enrollment.Section) []enrollment.Section {
	index, duplicates := enrollment.NewIndex(rows)
	if len(duplicates) == 0 {
		return rows
	}
	out := make([]enrollment.Section, 0, len(index))
	for i, row := range rows {
		if index[enrollment.KeyOf(row)] != i {
			c.tel.ReportWarning(report_collector_duplicate_key, enrollment.KeyOf(row).String())
			continue
		}
		out = append(out, row)
	}
	return out
}
