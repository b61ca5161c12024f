package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"enrollments-backend/internal/enrollment"
	"enrollments-backend/internal/registrar"
	"enrollments-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
)

// columns owned by the detail page, a listing value for them is ignored
var detailColumns = map[string]bool{
	enrollment.ColSize:               true,
	enrollment.ColEnrolled:           true,
	enrollment.ColEnrolledRaw:        true,
	enrollment.ColLASC:               true,
	enrollment.ColOnline18:           true,
	enrollment.ColTuitionResident:    true,
	enrollment.ColTuitionNonResident: true,
	enrollment.ColTuitionUnit:        true,
	enrollment.ColCourseLevel:        true,
	enrollment.ColCourseFees:         true,
	enrollment.ColTimestamp:          true,
	enrollment.ColTerm:               true,
}

func sectionFromRow(row registrar.Row, term enrollment.Term) (enrollment.Section, error) {
	var section enrollment.Section
	for column, value := range row {
		if detailColumns[column] {
			continue
		}
		_, err := section.Set(column, value)
		if err != nil {
			return section, err
		}
	}
	if section.CourseID == "" {
		return section, fmt.Errorf("listing row without %q", enrollment.ColCourseID)
	}
	section.Term = term
	return section, nil
}

func applyDetail(section *enrollment.Section, detail registrar.Detail) {
	section.Size = detail.Size
	section.Enrolled = detail.Enrolled
	section.TuitionResident = detail.TuitionResident
	section.TuitionNonResident = detail.TuitionNonResident
	section.CourseFees = detail.CourseFees
	section.TuitionUnit = detail.TuitionUnit
	section.LASC = detail.LASC
	section.Online18 = detail.Online18
	section.CourseLevel = detail.CourseLevel
}

// scrapeSource returns nil sections when the source lists no courses.
// Only a missing course level or cancellation abort the source with an
// error that the caller must treat as fatal.
func (c *Collector) scrapeSource(ctx context.Context, src source) ([]enrollment.Section, []string, error) {
	ctx, span := tracer.Start(ctx, "scrapeSource")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", src.name),
		attribute.String("term", string(src.term)),
	)

	var rows []registrar.Row
	var err error
	if src.isCourse {
		rows, err = c.portal.CourseListing(ctx, src.name, string(src.term))
	} else {
		rows, err = c.portal.SubjectListing(ctx, string(src.term), src.name)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	sections := make([]enrollment.Section, 0, len(rows))
	for _, row := range rows {
		section, err := sectionFromRow(row, src.term)
		if err != nil {
			return nil, nil, err
		}
		sections = append(sections, section)
	}

	var failedCourses []string
	out := make([]enrollment.Section, 0, len(sections))
	for _, section := range sections {
		if ctx.Err() != nil {
			return nil, failedCourses, ctx.Err()
		}

		detail, err := c.portal.CourseDetail(ctx, section.CourseID, string(src.term))
		if errors.Is(err, registrar.ErrCourseLevelNotFound) {
			c.tel.ReportBroken(report_collector_course_level, section.CourseID, string(src.term), err)
			return nil, failedCourses, err
		}
		if err != nil {
			c.tel.ReportWarning(report_collector_course_detail, section.CourseID, string(src.term), err)
			failedCourses = append(failedCourses, fmt.Sprintf("%s@%s", section.CourseID, src.term))
			continue
		}
		if detail.SystemError {
			slog.WarnContext(ctx, "system error on detail page", "course_id", section.CourseID, "term", src.term)
		}

		applyDetail(&section, detail)
		section.Timestamp = timezone.ToEpoch(c.cfg.Clock.Now())
		out = append(out, section)
	}
	if len(out) == 0 {
		return nil, failedCourses, fmt.Errorf("no course detail could be fetched for %d courses", len(sections))
	}
	return out, failedCourses, nil
}
