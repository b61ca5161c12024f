package analytics

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"enrollments-backend/internal/enrollment"
	"enrollments-backend/internal/normalize"
	"enrollments-backend/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func section(term enrollment.Term, subject, number, lasc string) enrollment.Section {
	return enrollment.Section{
		CourseID:        "000" + number,
		Rubric:          subject,
		Number:          number,
		Section:         "01",
		Title:           subject + " " + number,
		Credits:         "3",
		Size:            30,
		Enrolled:        20,
		Status:          "Open",
		LASC:            lasc,
		TuitionUnit:     enrollment.PerCourse,
		TuitionResident: "$1,000.00",
		Timestamp:       1718000000,
		Term:            term,
	}
}

func fixtureRows(t *testing.T) []normalize.Analytical {
	online := section("20245", "ART", "101", "6,WI")
	online.Online18 = true
	cancelled := section("20245", "ENGL", "101", "WI")
	cancelled.Status = "Cancelled"
	noTimestamp := section("20243", "PHIL", "110", "9")
	noTimestamp.Timestamp = 0

	rows, err := normalize.ToAnalyticalRows([]enrollment.Section{
		section("20243", "MATH", "127", "4"),
		section("20245", "MATH", "229", ""),
		section("20245", "MATH", "127", "4,WI"),
		online,
		cancelled,
		noTimestamp,
	}, normalize.Colleges{"MATH": "CSE", "ART": "AH", "ENGL": "AH"})
	require.NoError(t, err)
	return rows
}

func openFixture(t *testing.T, rows []normalize.Analytical) *Reader {
	path := filepath.Join(t.TempDir(), "enrollments.parquet")
	ctx := context.Background()
	require.NoError(t, WriteParquet(ctx, path, rows))

	reader, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { reader.Close() })
	return reader
}

func keys(rows []normalize.Analytical) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = fmt.Sprintf("%d %s %s", row.FiscalYrtr, row.Rubric, row.Number)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	rows := fixtureRows(t)
	reader := openFixture(t, rows)

	result, err := reader.Query(context.Background(), Filter{Subject: "PHIL"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	phil := result[0]
	require.Nil(t, phil.College)
	require.True(t, phil.LastUpdated.IsZero())
	require.Equal(t, "Fall 2023", phil.Term)

	result, err = reader.Query(context.Background(), Filter{Subject: "MATH", Number: "127", Term: "20243"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	if diff := cmp.Diff(rows[0], result[0]); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, timezone.Location, result[0].LastUpdated.Location())
	require.True(t, result[0].LastUpdated.Equal(time.Unix(1718000000, 0)))
}

func TestQuery(t *testing.T) {
	reader := openFixture(t, fixtureRows(t))

	cases := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{
			name:     "most recent term by default",
			filter:   Filter{},
			expected: []string{"20245 ART 101", "20245 ENGL 101", "20245 MATH 127", "20245 MATH 229"},
		},
		{
			name:     "subject is case insensitive",
			filter:   Filter{Subject: "math"},
			expected: []string{"20245 MATH 127", "20245 MATH 229"},
		},
		{
			name:     "default term follows the other predicates",
			filter:   Filter{Subject: "PHIL"},
			expected: []string{"20243 PHIL 110"},
		},
		{
			name:     "all terms",
			filter:   Filter{Subject: "MATH", AllTerms: true},
			expected: []string{"20243 MATH 127", "20245 MATH 127", "20245 MATH 229"},
		},
		{
			name:     "course number",
			filter:   Filter{Number: "127", AllTerms: true},
			expected: []string{"20243 MATH 127", "20245 MATH 127"},
		},
		{
			name:     "course number prefix",
			filter:   Filter{NumberPrefix: "1"},
			expected: []string{"20245 ART 101", "20245 ENGL 101", "20245 MATH 127"},
		},
		{
			name:     "lasc",
			filter:   Filter{LASC: true, AllTerms: true},
			expected: []string{"20243 MATH 127", "20243 PHIL 110", "20245 ART 101", "20245 MATH 127"},
		},
		{
			name:     "lasc area substring",
			filter:   Filter{LASCArea: "wi"},
			expected: []string{"20245 ART 101", "20245 ENGL 101", "20245 MATH 127"},
		},
		{
			name:     "writing intensive",
			filter:   Filter{WritingIntensive: true, AllTerms: true},
			expected: []string{"20245 ART 101", "20245 ENGL 101", "20245 MATH 127"},
		},
		{
			name:     "18 online",
			filter:   Filter{Online18: true},
			expected: []string{"20245 ART 101"},
		},
		{
			name:     "college",
			filter:   Filter{College: "AH"},
			expected: []string{"20245 ART 101", "20245 ENGL 101"},
		},
		{
			name:     "exact term",
			filter:   Filter{Term: "20243"},
			expected: []string{"20243 MATH 127", "20243 PHIL 110"},
		},
		{
			name:     "term range",
			filter:   Filter{TermFrom: "20243", TermTo: "20243"},
			expected: []string{"20243 MATH 127", "20243 PHIL 110"},
		},
		{
			name:     "no match",
			filter:   Filter{Subject: "MTH"},
			expected: []string{},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rows, err := reader.Query(context.Background(), c.filter)
			require.NoError(t, err)
			require.Equal(t, c.expected, keys(rows))
		})
	}

	_, err := reader.Query(context.Background(), Filter{Term: "2024"})
	require.True(t, errors.Is(err, enrollment.ErrInvalidTerm))
}

func TestTermsAndSubjects(t *testing.T) {
	reader := openFixture(t, fixtureRows(t))
	ctx := context.Background()

	terms, err := reader.Terms(ctx)
	require.NoError(t, err)
	require.Equal(t, []normalize.Semester{
		{YearTerm: "20245", Term: "Spring 2024"},
		{YearTerm: "20243", Term: "Fall 2023"},
	}, terms)

	subjects, err := reader.Subjects(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"ART", "ENGL", "MATH", "PHIL"}, subjects)

	suggestions, err := reader.SuggestSubjects(ctx, "mth", 3)
	require.NoError(t, err)
	require.Equal(t, []string{"MATH"}, suggestions)
}

func TestEmptyTable(t *testing.T) {
	reader := openFixture(t, nil)
	ctx := context.Background()

	rows, err := reader.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Empty(t, rows)

	terms, err := reader.Terms(ctx)
	require.NoError(t, err)
	require.Empty(t, terms)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.parquet"))
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	rows := []normalize.Analytical{
		{Credits: "3", Enrolled: 20, Size: 30, Status: "Open", TuitionUnit: enrollment.PerCourse, TuitionResident: 1000},
		{Credits: "Vari.", Enrolled: 5, Size: 4, Status: "Closed", TuitionUnit: enrollment.PerCredit, TuitionResident: 200},
		{Credits: "4", Enrolled: 0, Size: 25, Status: "Cancelled", TuitionUnit: enrollment.PerCourse, TuitionResident: 1000},
		{Credits: "2", Enrolled: -1, Size: -1, Status: "Open", TuitionUnit: enrollment.PerCredit, TuitionResident: 300},
	}
	require.Equal(t, Summary{
		Sections:       4,
		CreditHours:    65,
		SeatsAvailable: 34,
		SeatsFilled:    25,
		SeatsEmpty:     10,
		TuitionRevenue: 21000,
	}, Summarize(rows))
}

func TestSummarizeFractionalCredits(t *testing.T) {
	rows := []normalize.Analytical{
		{Credits: "1.5", Enrolled: 10, Size: 12, Status: "Open", TuitionUnit: enrollment.PerCredit, TuitionResident: 200},
		{Credits: "0.5", Enrolled: 3, Size: 3, Status: "Open", TuitionUnit: enrollment.PerCourse, TuitionResident: 100},
	}
	summary := Summarize(rows)
	require.InDelta(t, 16.5, summary.CreditHours, 1e-9)
	require.InDelta(t, 3300, summary.TuitionRevenue, 1e-9)
	require.Equal(t, 15, summary.SeatsAvailable)
}

func TestSuggest(t *testing.T) {
	candidates := []string{"ART", "MATH", "MATS", "PHIL"}
	require.Equal(t, []string{"MATH"}, suggest(candidates, "MATH", 1))
	require.Empty(t, suggest(candidates, "ZZZZZZ", 3))
}
