package analytics

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"enrollments-backend/internal/enrollment"
	"enrollments-backend/internal/normalize"
)

const tableName = "sections"

var columnTypes = map[string]string{
	normalize.ColTerm:               "VARCHAR",
	normalize.ColFiscalYrtr:         "INTEGER",
	enrollment.ColCourseID:          "VARCHAR",
	enrollment.ColRubric:            "VARCHAR",
	enrollment.ColNumber:            "VARCHAR",
	enrollment.ColSection:           "VARCHAR",
	enrollment.ColTitle:             "VARCHAR",
	normalize.ColCredits:            "VARCHAR",
	enrollment.ColEnrolled:          "INTEGER",
	normalize.ColSize:               "INTEGER",
	enrollment.ColStatus:            "VARCHAR",
	enrollment.ColDates:             "VARCHAR",
	enrollment.ColDays:              "VARCHAR",
	enrollment.ColTime:              "VARCHAR",
	enrollment.ColInstructor:        "VARCHAR",
	enrollment.ColDeliveryMethod:    "VARCHAR",
	enrollment.ColLocation:          "VARCHAR",
	enrollment.ColLASC:              "VARCHAR",
	enrollment.ColOnline18:          "BOOLEAN",
	enrollment.ColCourseLevel:       "VARCHAR",
	normalize.ColCollege:            "VARCHAR",
	enrollment.ColTuitionUnit:       "VARCHAR",
	normalize.ColTuitionResident:    "DOUBLE",
	normalize.ColTuitionNonResident: "DOUBLE",
	enrollment.ColCourseFees:        "DOUBLE",
	enrollment.ColBookCost:          "DOUBLE",
	normalize.ColLastUpdated:        "TIMESTAMPTZ",
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func createTableSQL() string {
	defs := make([]string, len(normalize.AnalyticalColumns))
	for i, name := range normalize.AnalyticalColumns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(name), columnTypes[name])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", tableName, strings.Join(defs, ", "))
}

func selectList() string {
	names := make([]string, len(normalize.AnalyticalColumns))
	for i, name := range normalize.AnalyticalColumns {
		names[i] = quoteIdent(name)
	}
	return strings.Join(names, ", ")
}

// values returns row in the order of normalize.AnalyticalColumns.
func values(row normalize.Analytical) []driver.Value {
	var college driver.Value
	if row.College != nil {
		college = *row.College
	}
	var lastUpdated driver.Value
	if !row.LastUpdated.IsZero() {
		lastUpdated = row.LastUpdated
	}
	return []driver.Value{
		row.Term,
		row.FiscalYrtr,
		row.CourseID,
		row.Rubric,
		row.Number,
		row.Section,
		row.Title,
		row.Credits,
		row.Enrolled,
		row.Size,
		row.Status,
		row.Dates,
		row.Days,
		row.Time,
		row.Instructor,
		row.DeliveryMethod,
		row.Location,
		row.LASC,
		row.Online18,
		row.CourseLevel,
		college,
		row.TuitionUnit,
		row.TuitionResident,
		row.TuitionNonResident,
		row.CourseFees,
		row.BookCost,
		lastUpdated,
	}
}
