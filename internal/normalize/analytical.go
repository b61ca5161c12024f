package normalize

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"enrollments-backend/internal/enrollment"
	"enrollments-backend/lib/timezone"
)

// DefaultDeliveryMethod is used for sections without a delivery method.
const DefaultDeliveryMethod = "On Campus"

// Analytical column names, in output order.
const (
	ColTerm               = "Term"
	ColFiscalYrtr         = "Fiscal yrtr"
	ColCredits            = "Credits"
	ColSize               = "Size"
	ColCollege            = "College"
	ColTuitionResident    = "Tuition Resident"
	ColTuitionNonResident = "Tuition Non-Resident"
	ColLastUpdated        = "Last Updated"
)

var AnalyticalColumns = []string{
	ColTerm, ColFiscalYrtr,
	enrollment.ColCourseID, enrollment.ColRubric, enrollment.ColNumber, enrollment.ColSection,
	enrollment.ColTitle, ColCredits, enrollment.ColEnrolled, ColSize, enrollment.ColStatus,
	enrollment.ColDates, enrollment.ColDays, enrollment.ColTime, enrollment.ColInstructor,
	enrollment.ColDeliveryMethod, enrollment.ColLocation, enrollment.ColLASC, enrollment.ColOnline18,
	enrollment.ColCourseLevel, ColCollege, enrollment.ColTuitionUnit,
	ColTuitionResident, ColTuitionNonResident, enrollment.ColCourseFees, enrollment.ColBookCost,
	ColLastUpdated,
}

// Analytical is one row of the analytical table, a section with native
// types and the derived columns.
type Analytical struct {
	Term           string
	FiscalYrtr     int
	CourseID       string
	Rubric         string
	Number         string
	Section        string
	Title          string
	Credits        string
	Enrolled       int
	Size           int
	Status         string
	Dates          string
	Days           string
	Time           string
	Instructor     string
	DeliveryMethod string
	Location       string
	LASC           string
	Online18       bool
	CourseLevel    string
	// College is nil when the rubric has no mapping.
	College            *string
	TuitionUnit        string
	TuitionResident    float64
	TuitionNonResident float64
	CourseFees         float64
	BookCost           float64
	// LastUpdated is the zero time when the row carries no timestamp.
	LastUpdated time.Time
}

// ToAnalytical derives the analytical row of an archive row. The archive
// fixes are applied to a copy of s first.
func ToAnalytical(s enrollment.Section, colleges Colleges) (Analytical, error) {
	if !s.Term.Valid() {
		return Analytical{}, fmt.Errorf("course %s: %w: %q", s.CourseID, enrollment.ErrInvalidTerm, s.Term)
	}
	FixArchiveRow(&s)

	row := Analytical{
		Term:           s.Term.Label(),
		FiscalYrtr:     s.Term.Int(),
		CourseID:       s.CourseID,
		Rubric:         s.Rubric,
		Number:         s.Number,
		Section:        s.Section,
		Title:          s.Title,
		Credits:        s.Credits,
		Enrolled:       s.Enrolled,
		Size:           s.Size,
		Status:         s.Status,
		Dates:          s.Dates,
		Days:           s.Days,
		Time:           s.Time,
		Instructor:     s.Instructor,
		DeliveryMethod: s.DeliveryMethod,
		Location:       s.Location,
		LASC:           s.LASC,
		Online18:       s.Online18,
		CourseLevel:    s.CourseLevel,
		TuitionUnit:    s.TuitionUnit,
	}
	if strings.TrimSpace(row.DeliveryMethod) == "" {
		row.DeliveryMethod = DefaultDeliveryMethod
	}
	if college, ok := colleges.College(s.Rubric); ok {
		row.College = &college
	}
	if s.Timestamp != 0 {
		row.LastUpdated = timezone.FromEpoch(s.Timestamp)
	}

	var err error
	money := []struct {
		raw string
		dst *float64
	}{
		{s.TuitionResident, &row.TuitionResident},
		{s.TuitionNonResident, &row.TuitionNonResident},
		{s.CourseFees, &row.CourseFees},
		{s.BookCost, &row.BookCost},
	}
	for _, m := range money {
		*m.dst, err = ParseCurrency(m.raw)
		if err != nil {
			return Analytical{}, fmt.Errorf("course %s term %s: %w", s.CourseID, s.Term, err)
		}
	}
	return row, nil
}

// ToAnalyticalRows converts every row, stopping at the first row that
// cannot be converted.
func ToAnalyticalRows(rows []enrollment.Section, colleges Colleges) ([]Analytical, error) {
	out := make([]Analytical, len(rows))
	for i, s := range rows {
		row, err := ToAnalytical(s, colleges)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// Semester is one published term.
type Semester struct {
	YearTerm enrollment.Term `json:"year_term"`
	Term     string          `json:"term"`
}

// Semesters lists the distinct terms of rows, newest first.
func Semesters(rows []enrollment.Section) []Semester {
	seen := map[enrollment.Term]bool{}
	var out []Semester
	for _, s := range rows {
		if seen[s.Term] || !s.Term.Valid() {
			continue
		}
		seen[s.Term] = true
		out = append(out, Semester{YearTerm: s.Term, Term: s.Term.Label()})
	}
	slices.SortFunc(out, func(a, b Semester) int {
		return strings.Compare(string(b.YearTerm), string(a.YearTerm))
	})
	return out
}
